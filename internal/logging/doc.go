// Package logging provides opt-in file logging with rotation for patclust.
// With --debug, JSON logs are written to <data dir>/logs/patclust.log and
// teed to stderr. Without it, the default slog logger stays on stderr.
package logging
