package postgres

import (
	"encoding/base64"
	"encoding/json"
)

// decodeJSONField unmarshals a jsonb column into target. Depending on
// the driver the raw bytes may arrive as plain JSON, as a JSON string
// wrapping the document, or base64-wrapped; all three are handled.
func decodeJSONField(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, target); err == nil {
		return nil
	}

	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return err
	}

	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.StdEncoding} {
		decoded, err := enc.DecodeString(wrapped)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(decoded, target); err == nil {
			return nil
		}
	}

	return json.Unmarshal([]byte(wrapped), target)
}
