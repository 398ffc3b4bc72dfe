// Package render produces output from scored profiles and leaderboards.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/psyche/internal/aggregate"
	"github.com/dshills/psyche/internal/schema"
	"github.com/dshills/psyche/internal/scoring"
)

// RenderJSON produces a pretty-printed JSON representation of the profile.
// The output round-trips through json.Unmarshal back to an equal profile.
func RenderJSON(p *schema.ModelProfile) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("render: nil profile")
	}
	return marshal(p)
}

// RenderLeaderboardJSON produces pretty-printed JSON for leaderboard rows. An
// empty leaderboard renders as [].
func RenderLeaderboardJSON(entries []aggregate.Entry) ([]byte, error) {
	if entries == nil {
		entries = []aggregate.Entry{}
	}
	return marshal(entries)
}

func marshal(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// traitOrder fixes the display order of the headline traits per result key.
// Keys not listed are shown afterwards in sorted order.
var traitOrder = map[string][]string{
	schema.KeyBigFive:     scoring.BigFiveDomains,
	schema.KeyMBTI:        {"IE", "SN", "TF", "JP", "I", "E", "S", "N", "T", "F", "J", "P"},
	schema.KeyMBTIDerived: {"I", "E", "S", "N", "T", "F", "J", "P"},
	schema.KeyDISC:        {"D", "I", "S", "C"},
	schema.KeyDarkTriad:   scoring.DarkTriadSubscales,
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of the profile:
// a header, then one trait table per inventory result. Raw pre-calibration
// values are shown beside the score when the result carries them.
func RenderMarkdown(p *schema.ModelProfile) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Psychometric Profile: %s\n\n", mdEscape(p.ModelName))
	fmt.Fprintf(&sb, "**Persona:** %s  \n", mdEscape(p.PersonaOrDefault()))
	if p.Timestamp != 0 {
		fmt.Fprintf(&sb, "**Date:** %s  \n", p.Time().Format(time.RFC3339))
	}
	if t := p.MBTIType(); t != "" {
		fmt.Fprintf(&sb, "**MBTI:** %s  \n", t)
	}
	if p.SystemPrompt != "" {
		fmt.Fprintf(&sb, "**System prompt:** %s  \n", mdEscape(p.SystemPrompt))
	}
	sb.WriteString("\n")

	for _, key := range schema.ResultKeys {
		r := p.Result(key)
		if r == nil {
			continue
		}
		writeResult(&sb, key, r)
	}
	return sb.String()
}

func writeResult(sb *strings.Builder, key string, r *schema.InventoryResult) {
	name := r.InventoryName
	if name == "" {
		name = key
	}
	fmt.Fprintf(sb, "### %s\n\n", mdEscape(name))
	if r.Type != "" {
		fmt.Fprintf(sb, "**Type:** %s\n\n", r.Type)
	}

	keys := orderedTraits(key, r)
	if len(keys) > 0 {
		hasRaw := false
		for _, k := range keys {
			if _, ok := r.TraitScores[schema.RawPrefix+k]; ok {
				hasRaw = true
				break
			}
		}
		if hasRaw {
			sb.WriteString("| Trait | Score | Raw |\n|---|---|---|\n")
		} else {
			sb.WriteString("| Trait | Score |\n|---|---|\n")
		}
		for _, k := range keys {
			if hasRaw {
				raw := "-"
				if v, ok := r.TraitScores[schema.RawPrefix+k]; ok {
					raw = fmt.Sprintf("%.1f", v)
				}
				fmt.Fprintf(sb, "| %s | %.1f | %s |\n", mdEscape(k), r.TraitScores[k], raw)
				continue
			}
			fmt.Fprintf(sb, "| %s | %.1f |\n", mdEscape(k), r.TraitScores[k])
		}
		sb.WriteString("\n")
	}

	if len(r.PSI) > 0 {
		dims := make([]string, 0, len(r.PSI))
		for d := range r.PSI {
			dims = append(dims, d)
		}
		sort.Strings(dims)
		parts := make([]string, len(dims))
		for i, d := range dims {
			parts[i] = fmt.Sprintf("%s %.2f", d, r.PSI[d])
		}
		fmt.Fprintf(sb, "**Preference strength:** %s\n\n", strings.Join(parts, ", "))
	}
	if missing := detailStrings(r.Details["missing"]); len(missing) > 0 {
		fmt.Fprintf(sb, "_No responses for: %s_\n\n", strings.Join(missing, ", "))
	}
}

// detailStrings reads a string list from Details. Profiles decoded from JSON
// carry []any rather than []string.
func detailStrings(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// orderedTraits returns the non-raw trait keys of r, headline traits first.
func orderedTraits(key string, r *schema.InventoryResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range traitOrder[key] {
		if _, ok := r.TraitScores[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range r.TraitKeys(false) {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// RenderLeaderboardMarkdown renders leaderboard rows as a Markdown table. The
// Dark Triad columns appear only when at least one row has Dark Triad data.
func RenderLeaderboardMarkdown(entries []aggregate.Entry) string {
	var sb strings.Builder
	sb.WriteString("## Leaderboard\n\n")
	if len(entries) == 0 {
		sb.WriteString("_No runs recorded._\n")
		return sb.String()
	}

	withDT := false
	for _, e := range entries {
		if len(e.DarkTriad) > 0 {
			withDT = true
			break
		}
	}

	header := []string{"#", "Model", "Persona", "Runs", "MBTI"}
	for _, d := range scoring.BigFiveDomains {
		header = append(header, "B5 "+d)
	}
	for _, q := range traitOrder[schema.KeyDISC] {
		header = append(header, "DISC "+q)
	}
	if withDT {
		for _, s := range scoring.DarkTriadSubscales {
			header = append(header, s[:4])
		}
	}
	writeRow(&sb, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&sb, sep)

	for i, e := range entries {
		row := []string{fmt.Sprint(i + 1), mdEscape(e.Name), mdEscape(e.Persona), fmt.Sprint(e.Count), e.MBTI}
		for _, d := range scoring.BigFiveDomains {
			row = append(row, fmt.Sprintf("%.1f", e.Scores[d]))
		}
		for _, q := range traitOrder[schema.KeyDISC] {
			row = append(row, fmt.Sprintf("%.1f", e.DISC[q]))
		}
		if withDT {
			for _, s := range scoring.DarkTriadSubscales {
				if v, ok := e.DarkTriad[s]; ok {
					row = append(row, fmt.Sprintf("%.1f", v))
				} else {
					row = append(row, "-")
				}
			}
		}
		writeRow(&sb, row)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| ")
	sb.WriteString(strings.Join(cells, " | "))
	sb.WriteString(" |\n")
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
