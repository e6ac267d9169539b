package harness

import (
	"os"

	"github.com/mohitkumar/scriptproc/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ReadJsonFile reads a flat JSON object into a string map. String values are
// taken as they are; any other value keeps its JSON text. A missing, unreadable
// or malformed file yields an empty map.
func ReadJsonFile(path string) map[string]string {
	out := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("failed to read file", zap.String("file", path), zap.Error(err))
		}
		return out
	}
	if !gjson.ValidBytes(data) {
		logger.Error("failed to read file", zap.String("file", path), zap.String("error", "invalid json"))
		return out
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		logger.Error("failed to read file", zap.String("file", path), zap.String("error", "json object expected"))
		return out
	}
	res.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			out[key.String()] = value.String()
		} else {
			out[key.String()] = value.Raw
		}
		return true
	})
	return out
}
