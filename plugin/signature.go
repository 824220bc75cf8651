package plugin

import (
	"fmt"

	"github.com/gitrdm/neads/nerrors"
	"github.com/gitrdm/neads/symbolic"
)

// ParamKind mirrors the parameter kinds of Python's inspect.Signature,
// which the original neads plugins rely on (spec.md §6.1): positional-only,
// positional-or-keyword, keyword-only, *args and **kwargs. Go has no
// standard library analogue for this, so Signature.Bind is hand-rolled —
// this is inherent Python-interop domain logic with no ecosystem library
// home, recorded in DESIGN.md.
type ParamKind int

const (
	PositionalOnly ParamKind = iota
	PositionalOrKeyword
	KeywordOnly
	VarPositional
	VarKeyword
)

// Param describes a single signature parameter. Default is nil when the
// parameter is required.
type Param struct {
	Name    string
	Kind    ParamKind
	Default symbolic.Object
}

// Signature is an ordered list of Params, matching a plugin's Python
// function signature.
type Signature struct {
	Params []Param
}

// NewSignature builds a Signature, validating that kinds appear in the
// only legal order (positional-only, positional-or-keyword, at most one
// *args, keyword-only, at most one **kwargs) — the same ordering Python
// itself enforces at def time.
func NewSignature(params ...Param) (Signature, error) {
	stage := PositionalOnly
	seenVarPositional := false
	seenVarKeyword := false
	for _, p := range params {
		if seenVarKeyword {
			return Signature{}, nerrors.NewArgumentError("signature: no parameter may follow **kwargs")
		}
		switch p.Kind {
		case PositionalOnly:
			if stage != PositionalOnly {
				return Signature{}, nerrors.NewArgumentError("signature: positional-only parameter out of order")
			}
		case PositionalOrKeyword:
			if stage == KeywordOnly || seenVarPositional {
				return Signature{}, nerrors.NewArgumentError("signature: positional-or-keyword parameter out of order")
			}
			stage = PositionalOrKeyword
		case VarPositional:
			if seenVarPositional {
				return Signature{}, nerrors.NewArgumentError("signature: at most one *args parameter allowed")
			}
			seenVarPositional = true
			stage = KeywordOnly
		case KeywordOnly:
			stage = KeywordOnly
		case VarKeyword:
			seenVarKeyword = true
		default:
			return Signature{}, nerrors.NewArgumentError(fmt.Sprintf("signature: unknown parameter kind %d", p.Kind))
		}
	}
	return Signature{Params: append([]Param(nil), params...)}, nil
}

// Bind implements Python-style argument binding: positional arguments fill
// positional-only and positional-or-keyword parameters in order, spilling
// into *args if present; keyword arguments fill the remaining
// positional-or-keyword and keyword-only parameters by name, spilling into
// **kwargs if present; unfilled parameters take their Default. It returns
// one symbolic.Object per named parameter, plus synthesized *args/**kwargs
// entries under their own parameter names when present in the signature.
func (s Signature) Bind(positional []symbolic.Object, keyword map[string]symbolic.Object) (map[string]symbolic.Object, error) {
	bound := make(map[string]symbolic.Object, len(s.Params))
	filled := make(map[string]bool, len(s.Params))

	pi := 0
	var varPositionalName string
	var varKeywordName string

	for _, p := range s.Params {
		switch p.Kind {
		case PositionalOnly, PositionalOrKeyword:
			if pi < len(positional) {
				bound[p.Name] = positional[pi]
				filled[p.Name] = true
				pi++
			}
		case VarPositional:
			varPositionalName = p.Name
		case VarKeyword:
			varKeywordName = p.Name
		}
	}

	if pi < len(positional) {
		if varPositionalName == "" {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("signature: too many positional arguments (got %d)", len(positional)))
		}
		extra := make([]symbolic.Object, 0, len(positional)-pi)
		for ; pi < len(positional); pi++ {
			extra = append(extra, positional[pi])
		}
		bound[varPositionalName] = symbolic.NewList(extra...)
		filled[varPositionalName] = true
	}

	extraKeyword := map[symbolic.Object]symbolic.Object{}
	for name, val := range keyword {
		p, ok := s.paramByName(name)
		if !ok || p.Kind == VarPositional || p.Kind == VarKeyword {
			if varKeywordName == "" {
				return nil, nerrors.NewArgumentError(fmt.Sprintf("signature: unexpected keyword argument %q", name))
			}
			extraKeyword[symbolic.NewValue(name)] = val
			continue
		}
		if p.Kind == PositionalOnly {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("signature: %q is positional-only", name))
		}
		if filled[name] {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("signature: multiple values for argument %q", name))
		}
		bound[name] = val
		filled[name] = true
	}

	if varKeywordName != "" {
		pairs := make([][2]symbolic.Object, 0, len(extraKeyword))
		for k, v := range extraKeyword {
			pairs = append(pairs, [2]symbolic.Object{k, v})
		}
		bound[varKeywordName] = symbolic.NewDict(pairs...)
		filled[varKeywordName] = true
	}

	for _, p := range s.Params {
		if filled[p.Name] {
			continue
		}
		if p.Kind == VarPositional {
			bound[p.Name] = symbolic.NewList()
			continue
		}
		if p.Kind == VarKeyword {
			bound[p.Name] = symbolic.NewDict()
			continue
		}
		if p.Default != nil {
			bound[p.Name] = p.Default
			continue
		}
		return nil, nerrors.NewArgumentError(fmt.Sprintf("signature: missing required argument %q", p.Name))
	}

	return bound, nil
}

func (s Signature) paramByName(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Names returns the parameter names in declaration order.
func (s Signature) Names() []string {
	out := make([]string, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Name
	}
	return out
}
