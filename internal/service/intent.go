package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"hybridsearch/internal/model"
	"hybridsearch/internal/utils"
)

// DefaultSemanticDescription is embedded when the query has no free-text part
const DefaultSemanticDescription = "vivienda"

// IntentPolicy holds the validation knobs
type IntentPolicy struct {
	// Prices below this are read as currency/unit confusion and dropped. 0 disables.
	MinPlausiblePrice  float64
	DefaultDescription string
}

// Field names accepted in an intent payload. The second name is the legacy
// Spanish key some extractors still emit.
var intentFields = map[string][2]string{
	"price_min":            {"price_min", "precio_minimo"},
	"price_max":            {"price_max", "precio_maximo"},
	"rooms_min":            {"rooms_min", "habitaciones_minimas"},
	"rooms_max":            {"rooms_max", "habitaciones_maximas"},
	"area_min":             {"area_min", "metros_minimos"},
	"property_type":        {"property_type", "tipo_vivienda"},
	"required_features":    {"required_features", "caracteristicas_obligatorias"},
	"desired_features":     {"desired_features", "caracteristicas_deseadas"},
	"preferred_zones":      {"preferred_zones", "zonas_preferidas"},
	"semantic_description": {"semantic_description", "descripcion_semantica"},
}

// IntentValidator turns a raw intent payload into a validated Intent
type IntentValidator struct {
	policy IntentPolicy
	vocab  *model.Vocabulary
	logger *slog.Logger
}

// NewIntentValidator creates a validator bound to a vocabulary
func NewIntentValidator(policy IntentPolicy, vocab *model.Vocabulary, logger *slog.Logger) *IntentValidator {
	if policy.DefaultDescription == "" {
		policy.DefaultDescription = DefaultSemanticDescription
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentValidator{policy: policy, vocab: vocab, logger: logger}
}

// Validate parses and validates a payload. Only an unrecoverable payload is
// an error; bad individual fields are dropped and logged.
func (v *IntentValidator) Validate(payload []byte) (*model.Intent, error) {
	raw, err := utils.ExtractJSONObject(string(payload))
	if err != nil {
		return nil, &IntentParseError{Stage: "validate", Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &IntentParseError{Stage: "validate", Err: err}
	}
	get := func(name string) json.RawMessage {
		keys := intentFields[name]
		if val, ok := fields[keys[0]]; ok && !isNull(val) {
			return val
		}
		return fields[keys[1]]
	}

	intent := &model.Intent{
		PriceMin: v.price("price_min", get("price_min")),
		PriceMax: v.price("price_max", get("price_max")),
		RoomsMin: v.bound("rooms_min", get("rooms_min")),
		RoomsMax: v.bound("rooms_max", get("rooms_max")),
		AreaMin:  v.bound("area_min", get("area_min")),
	}
	orderBounds(&intent.PriceMin, &intent.PriceMax)
	orderBounds(&intent.RoomsMin, &intent.RoomsMax)

	if t := strings.TrimSpace(v.text("property_type", get("property_type"))); t != "" {
		intent.PropertyType = &t
	}

	intent.RawRequiredFeatures = v.list("required_features", get("required_features"))
	intent.RawDesiredFeatures = v.list("desired_features", get("desired_features"))

	var unknown []string
	intent.RequiredFeatures, unknown = v.canonical("required_features", intent.RawRequiredFeatures, nil, unknown)
	intent.DesiredFeatures, unknown = v.canonical("desired_features", intent.RawDesiredFeatures, intent.RequiredFeatures, unknown)
	intent.UnknownFeatures = unknown

	intent.PreferredZones = dedupeFold(v.list("preferred_zones", get("preferred_zones")))

	intent.SemanticDescription = strings.TrimSpace(v.text("semantic_description", get("semantic_description")))
	if intent.SemanticDescription == "" {
		intent.SemanticDescription = v.policy.DefaultDescription
	}

	return intent, nil
}

// bound decodes a non-negative number; numeric strings are accepted
func (v *IntentValidator) bound(field string, raw json.RawMessage) *float64 {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	var n float64
	var s string
	switch {
	case json.Unmarshal(raw, &n) == nil:
	case json.Unmarshal(raw, &s) == nil:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v.logger.Warn("dropping non-numeric intent field", "stage", "intent", "field", field, "value", s)
			return nil
		}
		n = parsed
	default:
		v.logger.Warn("dropping non-numeric intent field", "stage", "intent", "field", field, "value", string(raw))
		return nil
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		v.logger.Warn("dropping non-finite intent bound", "stage", "intent", "field", field, "value", string(raw))
		return nil
	}
	if n < 0 {
		v.logger.Warn("dropping negative intent bound", "stage", "intent", "field", field, "value", n)
		return nil
	}
	return &n
}

// price applies the plausibility floor on top of bound
func (v *IntentValidator) price(field string, raw json.RawMessage) *float64 {
	p := v.bound(field, raw)
	if p == nil || v.policy.MinPlausiblePrice <= 0 {
		return p
	}
	if *p < v.policy.MinPlausiblePrice {
		v.logger.Info("dropping implausible price, likely unit confusion",
			"stage", "intent", "field", field, "value", *p, "floor", v.policy.MinPlausiblePrice)
		return nil
	}
	return p
}

func (v *IntentValidator) text(field string, raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		v.logger.Warn("dropping non-string intent field", "stage", "intent", "field", field, "value", string(raw))
		return ""
	}
	return s
}

// list accepts an array of strings or a single string
func (v *IntentValidator) list(field string, raw json.RawMessage) []string {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := strings.TrimSpace(v.text(field, raw)); s != "" {
			return []string{s}
		}
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			v.logger.Warn("dropping non-string list entry", "stage", "intent", "field", field, "value", item)
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// canonical resolves raw terms against the vocabulary. Unresolved terms are
// appended to unknown; names already in exclude are skipped.
func (v *IntentValidator) canonical(field string, raw, exclude, unknown []string) ([]string, []string) {
	seen := make(map[string]bool, len(raw)+len(exclude))
	for _, name := range exclude {
		seen[name] = true
	}

	out := []string{}
	for _, term := range raw {
		name, ok := v.resolve(term)
		if !ok {
			v.logger.Info("feature outside vocabulary, kept for semantic search",
				"stage", "intent", "field", field, "term", term)
			unknown = appendUniqueFold(unknown, term)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, unknown
}

func (v *IntentValidator) resolve(term string) (string, bool) {
	if v.vocab == nil {
		name := utils.NormalizeTerm(term)
		return name, name != ""
	}
	return v.vocab.Canonical(term)
}

// orderBounds swaps an inverted min/max pair
func orderBounds(lo, hi **float64) {
	if *lo != nil && *hi != nil && **lo > **hi {
		*lo, *hi = *hi, *lo
	}
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func dedupeFold(items []string) []string {
	var out []string
	for _, item := range items {
		out = appendUniqueFold(out, item)
	}
	return out
}

func appendUniqueFold(list []string, item string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, item) {
			return list
		}
	}
	return append(list, item)
}

// IntentExtractor turns user text into an intent payload. It is usually a
// language model.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, query string) (string, error)
}

// IntentParser parses natural language queries into validated intents
type IntentParser struct {
	extractor IntentExtractor
	validator *IntentValidator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewIntentParser creates a new intent parser. A nil extractor makes every
// query a purely semantic search.
func NewIntentParser(extractor IntentExtractor, validator *IntentValidator, timeout time.Duration, logger *slog.Logger) *IntentParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentParser{extractor: extractor, validator: validator, timeout: timeout, logger: logger}
}

// Parse extracts and validates the intent of a query
func (p *IntentParser) Parse(ctx context.Context, query string) (*model.Intent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &IntentParseError{Stage: "extract", Err: errors.New("empty query")}
	}

	if p.extractor == nil {
		p.logger.Warn("intent extraction is not configured, searching on query text only", "stage", "intent")
		payload, _ := json.Marshal(map[string]string{"semantic_description": query})
		return p.validator.Validate(payload)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload, err := p.extractor.ExtractIntent(ctx, query)
	if err != nil {
		p.logger.Error("intent extraction failed", "stage", "intent", "dependency", "llm", "error", err)
		return nil, &IntentParseError{Stage: "extract", Err: err}
	}

	return p.validator.Validate([]byte(payload))
}
