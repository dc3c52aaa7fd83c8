package ast

import "log/slog"

// parserOptions holds configuration shared by every language parser
// constructor.
type parserOptions struct {
	logger *slog.Logger
}

func defaultParserOptions() parserOptions {
	return parserOptions{logger: slog.Default()}
}

// ParserOption configures a language parser at construction time.
type ParserOption func(*parserOptions)

// WithLogger overrides the *slog.Logger used for the per-language fallback
// warning (§4.2) and parse diagnostics.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(o *parserOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
