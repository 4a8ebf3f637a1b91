// Package knowledge resolves failure causes to recommended maintenance
// actions. Resolution is an ordered chain: curated knowledge-base lookup,
// then keyword heuristics, then a generic default. The order is the
// contract; first resolver with an answer wins.
package knowledge

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Entry is one (failure type, cause, recommended action) triple from the
// reference workbook. Cause is stored lower-cased and trimmed so matching
// is case-insensitive.
type Entry struct {
	FailureType string `json:"failure_type"`
	Cause       string `json:"cause"`
	Action      string `json:"action"`
}

// Resolver is one step of the recommendation chain.
type Resolver interface {
	Resolve(cause string) (string, bool)
}

// Matcher runs the resolver chain for a cause string.
type Matcher struct {
	chain []Resolver
}

// NewMatcher builds the standard chain over the given knowledge-base
// entries. A nil or empty table degrades to keyword heuristics and the
// generic default.
func NewMatcher(entries []Entry) *Matcher {
	return &Matcher{chain: []Resolver{
		tableResolver{entries: entries},
		keywordResolver{},
		genericResolver{},
	}}
}

// Recommend resolves a free-text cause to a recommended action. The final
// chain link always answers, so the result is never empty.
func (m *Matcher) Recommend(cause string) string {
	normalized := Normalize(cause)
	for _, r := range m.chain {
		if action, ok := r.Resolve(normalized); ok {
			return action
		}
	}
	return genericAction
}

// Normalize lower-cases and trims a cause for matching.
func Normalize(cause string) string {
	return strings.ToLower(strings.TrimSpace(cause))
}

// tableResolver matches against the loaded knowledge base: entries whose
// stored cause contains the queried cause as a substring, in table order,
// with the top three actions returned as a bulleted list.
type tableResolver struct {
	entries []Entry
}

func (t tableResolver) Resolve(cause string) (string, bool) {
	if len(t.entries) == 0 || cause == "" {
		return "", false
	}
	var actions []string
	for _, e := range t.entries {
		if strings.Contains(e.Cause, cause) {
			actions = append(actions, "• "+e.Action)
			if len(actions) == 3 {
				break
			}
		}
	}
	if len(actions) == 0 {
		return "", false
	}
	return strings.Join(actions, "\n"), true
}

type keywordAction struct {
	keyword string
	action  string
}

// Keyword heuristics, scanned in this order. Partial stems (elétric,
// contaminaç) deliberately match inflected forms.
var keywordActions = []keywordAction{
	{"desgaste", "Implementar programa de lubrificação preventiva e inspeção periódica"},
	{"vazamento", "Substituição programada de selos e juntas conforme vida útil"},
	{"elétric", "Realizar termografia periódica e análise de vibração"},
	{"hidráulic", "Monitoramento contínuo de pressão e vazão"},
	{"corrosão", "Aplicação de proteção superficial e controle ambiental"},
	{"sobreaquecimento", "Verificação do sistema de refrigeração e limpeza de radiadores"},
	{"alinhamento", "Realizar alinhamento a laser trimestral"},
	{"contaminaç", "Melhorar filtragem e controle de qualidade dos fluidos"},
}

type keywordResolver struct{}

func (keywordResolver) Resolve(cause string) (string, bool) {
	for _, ka := range keywordActions {
		if strings.Contains(cause, ka.keyword) {
			return ka.action, true
		}
	}
	return "", false
}

const genericAction = "Realizar análise de causa raiz com a equipe técnica"

type genericResolver struct{}

func (genericResolver) Resolve(string) (string, bool) {
	return genericAction, true
}

// Knowledge-base workbook schema.
const (
	kbSheet      = "Falhas"
	kbColFailure = "TipoFalha"
	kbColCause   = "Causa"
	kbColAction  = "AcaoRecomendada"
)

// Load reads the knowledge-base workbook. Callers treat a load failure as
// a degraded mode, not a fatal one: the matcher works with no table.
func Load(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(kbSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge sheet %q: %w", kbSheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{kbColFailure, kbColCause, kbColAction} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("knowledge sheet missing column %q", required)
		}
	}

	var entries []Entry
	for _, row := range rows[1:] {
		e := Entry{
			FailureType: Normalize(at(row, col[kbColFailure])),
			Cause:       Normalize(at(row, col[kbColCause])),
			Action:      strings.TrimSpace(at(row, col[kbColAction])),
		}
		if e.Cause == "" || e.Action == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func at(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
