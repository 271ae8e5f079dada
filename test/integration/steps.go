package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server/middleware"
)

// StepsContext holds the state of a single scenario
type StepsContext struct {
	tc *TestContext

	organizations map[string]*model.Organization
	plants        map[string]*model.Plant
	departments   map[string]*model.Department
	handovers     map[string]*model.Handover

	token        string
	lastResponse *http.Response
	lastBody     []byte
	lastJSON     interface{}
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.organizations = map[string]*model.Organization{}
		s.plants = map[string]*model.Plant{}
		s.departments = map[string]*model.Department{}
		s.handovers = map[string]*model.Handover{}
		s.token = ""
		s.lastResponse = nil
		s.lastBody = nil
		s.lastJSON = nil
		return ctx, s.tc.Reset()
	})

	// Fixtures
	sc.Step(`^the server is running$`, s.theServerIsRunning)
	sc.Step(`^the department "([^"]*)" in plant "([^"]*)" of organization "([^"]*)"$`, s.theDepartment)
	sc.Step(`^the (admin|manager|employee) "([^"]*)"$`, s.theProfile)
	sc.Step(`^the (manager|employee) "([^"]*)" in department "([^"]*)"$`, s.theProfileInDepartment)
	sc.Step(`^the following handovers:$`, s.theFollowingHandovers)

	// Requests
	sc.Step(`^I am signed in as "([^"]*)"$`, s.iAmSignedInAs)
	sc.Step(`^I send a (GET|POST|PATCH|DELETE) request to "([^"]*)"$`, s.iSendRequest)
	sc.Step(`^I send a (GET|POST|PATCH|DELETE) request to "([^"]*)" with body:$`, s.iSendRequestWithBody)
	sc.Step(`^I send a (GET|POST) request to "([^"]*)" with the cron secret$`, s.iSendRequestWithCronSecret)

	// Assertions
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the JSON at "([^"]*)" should be "([^"]*)"$`, s.theJSONAtShouldBe)
	sc.Step(`^the JSON at "([^"]*)" should have (\d+) items?$`, s.theJSONAtShouldHaveItems)
	sc.Step(`^the handover "([^"]*)" should have status "([^"]*)"$`, s.theHandoverShouldHaveStatus)
}

func (s *StepsContext) theServerIsRunning() error {
	resp, err := s.tc.HTTPClient.Get(s.tc.Server.URL + "/api/health")
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server health check returned %d", resp.StatusCode)
	}
	return nil
}

func (s *StepsContext) theDepartment(department, plant, organization string) error {
	org, ok := s.organizations[organization]
	if !ok {
		org = &model.Organization{Name: organization}
		if err := s.tc.DB.Create(org).Error; err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		s.organizations[organization] = org
	}

	p, ok := s.plants[plant]
	if !ok {
		p = &model.Plant{OrganizationID: org.ID, Name: plant}
		if err := s.tc.DB.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create plant: %w", err)
		}
		s.plants[plant] = p
	}

	dept := &model.Department{PlantID: p.ID, Name: department}
	if err := s.tc.DB.Create(dept).Error; err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	s.departments[department] = dept
	return nil
}

func (s *StepsContext) theProfile(role, email string) error {
	return s.createProfile(model.Role(role), email, nil)
}

func (s *StepsContext) theProfileInDepartment(role, email, department string) error {
	dept, ok := s.departments[department]
	if !ok {
		return fmt.Errorf("department %q not defined", department)
	}
	return s.createProfile(model.Role(role), email, &dept.ID)
}

func (s *StepsContext) createProfile(role model.Role, email string, departmentID *string) error {
	profile := &model.UserProfile{
		Email:        email,
		FullName:     strings.Split(email, "@")[0],
		Role:         role,
		DepartmentID: departmentID,
	}
	if err := s.tc.DB.Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// theFollowingHandovers inserts handovers from a table. Due dates are
// relative to today: "+3" is three days from now, "-2" two days ago, an
// empty cell leaves the due date unset.
func (s *StepsContext) theFollowingHandovers(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("handover table needs a header and at least one row")
	}
	header := table.Rows[0].Cells

	for _, row := range table.Rows[1:] {
		fields := map[string]string{}
		for i, cell := range row.Cells {
			fields[header[i].Value] = strings.TrimSpace(cell.Value)
		}

		h := &model.Handover{
			Title:                 fields["title"],
			ManagerEmail:          fields["manager"],
			OutgoingEmployeeEmail: fields["outgoing"],
			IncomingEmployeeEmail: fields["incoming"],
			Status:                model.Status(fields["status"]),
			Priority:              model.Priority(fields["priority"]),
		}
		if name := fields["department"]; name != "" {
			dept, ok := s.departments[name]
			if !ok {
				return fmt.Errorf("department %q not defined", name)
			}
			h.DepartmentID = &dept.ID
			h.PlantID = &dept.PlantID
		}
		if v := fields["completion"]; v != "" {
			pct, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid completion %q: %w", v, err)
			}
			h.CompletionPercentage = pct
		}
		if v := fields["due"]; v != "" {
			days, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid due offset %q: %w", v, err)
			}
			due := model.NewDate(time.Now().UTC().AddDate(0, 0, days))
			h.DueDate = &due
		}
		h.Normalize()

		if err := s.tc.DB.Create(h).Error; err != nil {
			return fmt.Errorf("failed to create handover %q: %w", h.Title, err)
		}
		s.handovers[h.Title] = h
	}
	return nil
}

func (s *StepsContext) iAmSignedInAs(email string) error {
	now := time.Now()
	claims := middleware.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-" + strings.Split(email, "@")[0],
			Audience:  jwt.ClaimStrings{middleware.DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	s.token = token
	return nil
}

func (s *StepsContext) iSendRequest(method, path string) error {
	return s.send(method, path, nil, s.bearer())
}

func (s *StepsContext) iSendRequestWithBody(method, path string, body *godog.DocString) error {
	return s.send(method, path, []byte(s.expand(body.Content)), s.bearer())
}

func (s *StepsContext) iSendRequestWithCronSecret(method, path string) error {
	return s.send(method, path, nil, "Bearer "+testCronSecret)
}

func (s *StepsContext) bearer() string {
	if s.token == "" {
		return ""
	}
	return "Bearer " + s.token
}

// expand replaces {handover:Title} and {department:Name} with generated IDs.
func (s *StepsContext) expand(text string) string {
	for title, h := range s.handovers {
		text = strings.ReplaceAll(text, "{handover:"+title+"}", h.ID)
	}
	for name, d := range s.departments {
		text = strings.ReplaceAll(text, "{department:"+name+"}", d.ID)
	}
	return text
}

func (s *StepsContext) send(method, path string, body []byte, authorization string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.Server.URL+s.expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	s.lastResponse = resp
	s.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.lastJSON = nil
	if len(s.lastBody) > 0 {
		_ = json.Unmarshal(s.lastBody, &s.lastJSON)
	}
	return nil
}

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.lastResponse == nil {
		return fmt.Errorf("no request has been sent")
	}
	if s.lastResponse.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.lastResponse.StatusCode, s.lastBody)
	}
	return nil
}

func (s *StepsContext) theJSONAtShouldBe(path, expected string) error {
	value, err := s.lookup(path)
	if err != nil {
		return err
	}
	if got := formatValue(value); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}

func (s *StepsContext) theJSONAtShouldHaveItems(path string, count int) error {
	value, err := s.lookup(path)
	if err != nil {
		return err
	}
	switch v := value.(type) {
	case []interface{}:
		if len(v) != count {
			return fmt.Errorf("expected %s to have %d items, got %d", path, count, len(v))
		}
	case nil:
		if count != 0 {
			return fmt.Errorf("expected %s to have %d items, got null", path, count)
		}
	default:
		return fmt.Errorf("%s is not an array: %T", path, value)
	}
	return nil
}

func (s *StepsContext) theHandoverShouldHaveStatus(title, status string) error {
	h, ok := s.handovers[title]
	if !ok {
		return fmt.Errorf("handover %q not defined", title)
	}
	var stored model.Handover
	if err := s.tc.DB.Where("id = ?", h.ID).Take(&stored).Error; err != nil {
		return err
	}
	if string(stored.Status) != status {
		return fmt.Errorf("expected handover %q to have status %q, got %q", title, status, stored.Status)
	}
	return nil
}

// lookup walks a dotted path such as "data.kpis.total" or
// "data.handovers.0.title" through the last JSON response.
func (s *StepsContext) lookup(path string) (interface{}, error) {
	if s.lastJSON == nil {
		return nil, fmt.Errorf("last response is not JSON: %s", s.lastBody)
	}
	current := s.lastJSON
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("%s: key %q not found", path, part)
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%s: index %q out of range", path, part)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("%s: cannot descend into %T at %q", path, current, part)
		}
	}
	return current, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
