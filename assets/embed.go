package assets

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

//go:embed tips.json
var TipsFS embed.FS

// DefaultTips returns the bundled tips used when the tips endpoint is unreachable.
func DefaultTips() ([]domain.Tip, error) {
	raw, err := TipsFS.ReadFile("tips.json")
	if err != nil {
		return nil, err
	}
	var tips []domain.Tip
	if err := json.Unmarshal(raw, &tips); err != nil {
		return nil, fmt.Errorf("decode bundled tips: %w", err)
	}
	return tips, nil
}
