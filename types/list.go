package types

import "encoding/json"

// option labels may contain commas, so lists travel as JSON inside attributes
func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	dat, _ := json.Marshal(items)
	return string(dat)
}

func decodeList(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	return items, nil
}
