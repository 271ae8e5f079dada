// Package logger wraps zap's SugaredLogger behind a small interface so
// components receive an injected, named logger instead of reaching for a
// global.
//
//	lggr, err := logger.New("info")
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = lggr.Sync() }()
//	dash := lggr.Named("dashboard")
//	dash.Infow("built dashboard", "manager", email, "handovers", n)
package logger
