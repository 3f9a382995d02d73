package rewrite

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

const officialLikeFeature = "official-like"

type versionResponse struct {
	ServerData struct {
		Features []struct {
			Name string `json:"name"`
		} `json:"features"`
	} `json:"serverData"`
}

// fetchOfficialLike asks the backend whether it advertises the
// official-like feature set. This is an unauthenticated hint that only
// steers content rewriting; any fetch or parse failure means false.
func (p *Pipeline) fetchOfficialLike(origin string) bool {
	resp, err := p.client.Get(origin + "/api/version")
	if err != nil {
		p.log.Debug("version check failed", zap.String("origin", origin), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	var v versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		p.log.Debug("version check returned malformed body", zap.String("origin", origin), zap.Error(err))
		return false
	}

	for _, f := range v.ServerData.Features {
		if strings.EqualFold(f.Name, officialLikeFeature) {
			return true
		}
	}
	return false
}
