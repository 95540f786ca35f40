package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"fakturabg/internal/core"
)

// maxOracleNames caps how many item names one grouping request may carry.
// Longer lists are truncated after sorting, so the kept prefix is stable.
const maxOracleNames = 100

// GroupingOracle proposes equivalence classes over raw item names. It never
// persists anything; accepted proposals are stored by the caller.
type GroupingOracle interface {
	ProposeGroups(ctx context.Context, itemNames []string) ([]core.MergeGroup, error)
}

type Oracle struct {
	client *openai.Client
}

func NewOracle(apiKey string) *Oracle {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Oracle{client: &client}
}

// mergeProposal wraps the groups so the structured-output schema has an
// object root, which strict mode requires.
type mergeProposal struct {
	Groups []core.MergeGroup `json:"groups" jsonschema_description:"Groups of item names that denote the same product"`
}

func (o *Oracle) ProposeGroups(ctx context.Context, itemNames []string) ([]core.MergeGroup, error) {
	names := dedupeSorted(itemNames)
	if len(names) < 2 {
		return []core.MergeGroup{}, nil
	}
	if len(names) > maxOracleNames {
		names = names[:maxOracleNames]
	}

	prompt := fmt.Sprintf(`You are a product catalog assistant for a Bulgarian bookkeeping system.
The list below contains item names as they appear on supplier invoices. Different suppliers
spell the same product differently (case, abbreviations, package size suffixes, Latin vs Cyrillic).
Group the names that denote the SAME product.
Rules:
1. Use ONLY names from the list, character for character.
2. Put a name in at most one group.
3. A group needs at least two names; never emit single-name groups.
4. Pick the clearest, most complete spelling as the canonical name and include it in the variants.
5. When in doubt, leave names ungrouped. Do not group different products that merely share a brand.

Item names:
%s`, strings.Join(names, "\n"))

	schemaStruct := generateSchema(mergeProposal{})
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "item_merge_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Groups of invoice item names that denote the same product"),
				},
			},
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return nil, &core.ExternalServiceError{Op: "propose item groups", Err: err}
	}

	content := resp.OutputText()
	if content == "" {
		return nil, &core.ExternalServiceError{Op: "propose item groups", Err: fmt.Errorf("empty response content")}
	}

	var proposal mergeProposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, &core.ExternalServiceError{Op: "propose item groups", Err: fmt.Errorf("parse completion: %w", err)}
	}

	groups, err := validateGroups(proposal.Groups, names)
	if err != nil {
		return nil, &core.ExternalServiceError{Op: "propose item groups", Err: err}
	}
	return groups, nil
}

// validateGroups enforces the contract the prompt states: canonical names are
// non-empty members of the input list, every group has at least two variants,
// and no name appears in two groups. A contract violation fails the whole
// proposal rather than silently repairing it.
func validateGroups(groups []core.MergeGroup, names []string) ([]core.MergeGroup, error) {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	claimed := map[string]bool{}
	out := make([]core.MergeGroup, 0, len(groups))
	for i, g := range groups {
		if strings.TrimSpace(g.CanonicalName) == "" {
			return nil, fmt.Errorf("group %d: empty canonical name", i+1)
		}
		if len(g.Variants) < 2 {
			return nil, fmt.Errorf("group %d (%s): fewer than two variants", i+1, g.CanonicalName)
		}
		if !known[g.CanonicalName] {
			return nil, fmt.Errorf("group %d: canonical %q is not an input name", i+1, g.CanonicalName)
		}
		for _, v := range g.Variants {
			if !known[v] {
				return nil, fmt.Errorf("group %d (%s): variant %q is not an input name", i+1, g.CanonicalName, v)
			}
			if claimed[v] {
				return nil, fmt.Errorf("group %d (%s): variant %q appears in two groups", i+1, g.CanonicalName, v)
			}
			claimed[v] = true
		}
		out = append(out, g)
	}
	return out, nil
}

// dedupeSorted trims, drops empties and duplicates, and sorts the names so
// the same input set always produces the same prompt.
func dedupeSorted(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func generateSchema(v any) interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}
