package invoker

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// encodeQuery flattens arguments into bracket-style query parameters
// (filter[field]=x, ids[0]=1) as understood by PHP-based REST hosts.
// Null values are omitted and booleans become 1 or 0.
func encodeQuery(args map[string]any) string {
	values := url.Values{}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		addQueryValue(values, k, args[k])
	}
	return values.Encode()
}

func addQueryValue(values url.Values, key string, v any) {
	switch val := v.(type) {
	case nil:
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			addQueryValue(values, key+"["+k+"]", val[k])
		}
	case []any:
		for i, item := range val {
			addQueryValue(values, key+"["+strconv.Itoa(i)+"]", item)
		}
	default:
		values.Add(key, textValue(val))
	}
}

// textValue renders a scalar argument the way it appears in a URL.
func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
