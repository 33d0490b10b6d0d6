package babelnet

import (
	"encoding/json"
	"strings"

	"github.com/Pew-X/sensegate/internal/core"
)

type synsetIDResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	POS    string `json:"pos"`
}

type synsetResponse struct {
	Senses []struct {
		Type       string `json:"type"`
		Properties struct {
			FullLemma string `json:"fullLemma"`
			Source    string `json:"source"`
			SenseKey  string `json:"senseKey"`
			Language  string `json:"language"`
		} `json:"properties"`
	} `json:"senses"`
	Glosses []struct {
		Source   string `json:"source"`
		Language string `json:"language"`
		Gloss    string `json:"gloss"`
	} `json:"glosses"`
	Examples []struct {
		Source   string `json:"source"`
		Language string `json:"language"`
		Example  string `json:"example"`
	} `json:"examples"`
}

type edgeResponse struct {
	Language string `json:"language"`
	Pointer  struct {
		FName     string `json:"fName"`
		ShortName string `json:"shortName"`
	} `json:"pointer"`
	Target string `json:"target"`
}

func (r *synsetResponse) toSynset(id string) *core.Synset {
	synset := &core.Synset{ID: id}
	for _, s := range r.Senses {
		synset.Senses = append(synset.Senses, core.Sense{
			Lemma:    s.Properties.FullLemma,
			Language: core.Language(strings.ToUpper(s.Properties.Language)),
			Source:   core.Source(s.Properties.Source),
			SenseKey: s.Properties.SenseKey,
		})
	}
	for _, g := range r.Glosses {
		synset.Glosses = append(synset.Glosses, core.Gloss{
			Text:     g.Gloss,
			Language: core.Language(strings.ToUpper(g.Language)),
			Source:   core.Source(g.Source),
		})
	}
	for _, e := range r.Examples {
		synset.Examples = append(synset.Examples, core.Example{
			Text:     e.Example,
			Language: core.Language(strings.ToUpper(e.Language)),
			Source:   core.Source(e.Source),
		})
	}
	return synset
}

// apiMessage extracts the error message BabelNet sends as {"message": "..."}.
func apiMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return ""
	}
	return msg.Message
}
