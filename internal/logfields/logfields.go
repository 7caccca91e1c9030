package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyFileID     = "file_id"
	KeyOutputID   = "output_id"
	KeyCategory   = "category"
	KeyAsset      = "asset"
	KeySeverity   = "severity"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func FileID(id string) slog.Attr      { return slog.String(KeyFileID, id) }
func OutputID(id string) slog.Attr    { return slog.String(KeyOutputID, id) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Asset(a string) slog.Attr        { return slog.String(KeyAsset, a) }
func Severity(s string) slog.Attr     { return slog.String(KeySeverity, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
