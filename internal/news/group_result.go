package news

import (
	"fmt"
	"strings"
)

// GroupResult is one line of a LIST ACTIVE or NEWGROUPS reply. The numbers
// are kept exactly as the server sent them.
type GroupResult struct {
	Name   string `json:"name"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Status string `json:"status"`
}

// ParseGroupResult splits "<name> <high> <low> <status>". Any other number
// of fields is a protocol error; no partial record is returned.
func ParseGroupResult(line string) (GroupResult, error) {
	f := strings.Fields(line)
	if len(f) != 4 {
		return GroupResult{}, fmt.Errorf("%w: group line needs 4 fields, got %d: %q", ErrProtocol, len(f), line)
	}
	return GroupResult{Name: f[0], High: f[1], Low: f[2], Status: f[3]}, nil
}

func parseGroupResults(lines []string) ([]GroupResult, error) {
	res := make([]GroupResult, 0, len(lines))
	for _, line := range lines {
		g, err := ParseGroupResult(line)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, nil
}
