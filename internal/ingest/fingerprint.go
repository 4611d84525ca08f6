package ingest

// Fingerprint synthesizes a deterministic numeric dedup key for alert
// text that lacks a Telegram message id (the bulk-import path). The same
// text always maps to the same key, so re-importing a file is idempotent.
// A simple rolling hash is deliberate: collisions are possible but
// acceptable for best-effort error telemetry.
func Fingerprint(text string) int64 {
	var h uint32
	for _, r := range text {
		h = h*31 + uint32(r)
	}
	// Mask to a positive int32 range so the key fits BIGINT alongside
	// real Telegram message ids and never collides with their sign.
	return int64(h & 0x7fffffff)
}
