// String functions operate on a singleton String input, indexed by
// character (rune) rather than byte so that multi-byte FHIR text (names,
// narrative, coded display strings) behaves consistently with FHIRPath's
// character-based indexing semantics.
package funcs

import (
	"strings"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "startsWith", MinArgs: 1, MaxArgs: 1, Fn: fnStartsWith})
	Register(FuncDef{Name: "endsWith", MinArgs: 1, MaxArgs: 1, Fn: fnEndsWith})
	Register(FuncDef{Name: "contains", MinArgs: 1, MaxArgs: 1, Fn: fnContains})
	Register(FuncDef{Name: "replace", MinArgs: 2, MaxArgs: 2, Fn: fnReplace})
	Register(FuncDef{Name: "matches", MinArgs: 1, MaxArgs: 1, Fn: fnMatches})
	Register(FuncDef{Name: "replaceMatches", MinArgs: 2, MaxArgs: 2, Fn: fnReplaceMatches})
	Register(FuncDef{Name: "indexOf", MinArgs: 1, MaxArgs: 1, Fn: fnIndexOf})
	Register(FuncDef{Name: "substring", MinArgs: 1, MaxArgs: 2, Fn: fnSubstring})
	Register(FuncDef{Name: "lower", MinArgs: 0, MaxArgs: 0, Fn: fnLower})
	Register(FuncDef{Name: "upper", MinArgs: 0, MaxArgs: 0, Fn: fnUpper})
	Register(FuncDef{Name: "toChars", MinArgs: 0, MaxArgs: 0, Fn: fnToChars})
	Register(FuncDef{Name: "split", MinArgs: 1, MaxArgs: 1, Fn: fnSplit})
	Register(FuncDef{Name: "join", MinArgs: 0, MaxArgs: 1, Fn: fnJoin})
	Register(FuncDef{Name: "trim", MinArgs: 0, MaxArgs: 0, Fn: fnTrim})
	Register(FuncDef{Name: "length", MinArgs: 0, MaxArgs: 0, Fn: fnLength})
}

func fnStartsWith(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	prefix, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewBoolean(strings.HasPrefix(str, prefix))}, nil
}

func fnEndsWith(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	suffix, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewBoolean(strings.HasSuffix(str, suffix))}, nil
}

func fnContains(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	substr, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewBoolean(strings.Contains(str, substr))}, nil
}

func fnReplace(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	pattern, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	substitution, ok := argString(args[1])
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(strings.ReplaceAll(str, pattern, substitution))}, nil
}

// fnMatches tests str against pattern using the shared regex cache, which
// bounds match time so a pathological pattern can't hang evaluation.
func fnMatches(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	pattern, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	matched, err := DefaultRegexCache.MatchWithTimeout(ctx.Context(), pattern, str)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(matched)}, nil
}

func fnReplaceMatches(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	pattern, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	substitution, ok := argString(args[1])
	if !ok {
		return types.Collection{}, nil
	}
	result, err := DefaultRegexCache.ReplaceWithTimeout(ctx.Context(), pattern, str, substitution)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewString(result)}, nil
}

// fnIndexOf returns the character (not byte) offset of substr's first
// occurrence, or -1 when absent. strings.Index reports a byte offset, so
// the prefix up to the match is re-counted in runes to convert it.
func fnIndexOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	substr, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}

	byteIdx := strings.Index(str, substr)
	if byteIdx < 0 {
		return types.Collection{types.NewInteger(-1)}, nil
	}
	return types.Collection{types.NewInteger(int64(len([]rune(str[:byteIdx]))))}, nil
}

// fnSubstring slices by rune index, matching FHIRPath's character-based
// indexing. start/length are positions into the decoded rune sequence, not
// raw bytes, so multi-byte characters count as one position each.
func fnSubstring(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	runes := []rune(str)

	start, err := argInteger(args[0])
	if err != nil {
		return nil, err
	}
	if start < 0 || int(start) >= len(runes) {
		return types.Collection{}, nil
	}

	if len(args) > 1 {
		length, err := argInteger(args[1])
		if err != nil {
			return nil, err
		}
		end := int(start + length)
		if end > len(runes) {
			end = len(runes)
		}
		if end < int(start) {
			end = int(start)
		}
		return types.Collection{types.NewString(string(runes[start:end]))}, nil
	}

	return types.Collection{types.NewString(string(runes[start:]))}, nil
}

func fnLower(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(strings.ToLower(str))}, nil
}

func fnUpper(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(strings.ToUpper(str))}, nil
}

func fnToChars(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	result := types.Collection{}
	for _, ch := range str {
		result = append(result, types.NewString(string(ch)))
	}
	return result, nil
}

func fnSplit(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	separator, ok := argString(args[0])
	if !ok {
		return types.Collection{}, nil
	}
	parts := strings.Split(str, separator)
	result := make(types.Collection, 0, len(parts))
	for _, part := range parts {
		result = append(result, types.NewString(part))
	}
	return result, nil
}

func fnJoin(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewString("")}, nil
	}
	separator := ""
	if len(args) > 0 {
		if sep, ok := argString(args[0]); ok {
			separator = sep
		}
	}
	parts := make([]string, 0, len(input))
	for _, item := range input {
		if s, ok := item.(types.String); ok {
			parts = append(parts, s.Value())
		} else {
			parts = append(parts, item.String())
		}
	}
	return types.Collection{types.NewString(strings.Join(parts, separator))}, nil
}

func fnTrim(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(strings.TrimSpace(str))}, nil
}

// fnLength counts characters (runes), not bytes, via a []rune conversion.
func fnLength(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	str, ok := singletonString(input)
	if !ok {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewInteger(int64(len([]rune(str))))}, nil
}
