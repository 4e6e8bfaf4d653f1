// FHIR-specific extensions to the base FHIRPath function library: resolving
// Reference.reference against an external resolver, reading extensions by
// URL, and decomposing a reference string into its resource-type/id parts.
package funcs

import (
	"strings"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/eval"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/types"
)

func init() {
	Register(FuncDef{Name: "resolve", MinArgs: 0, MaxArgs: 0, Fn: fnResolve})
	Register(FuncDef{Name: "extension", MinArgs: 1, MaxArgs: 1, Fn: fnExtension})
	Register(FuncDef{Name: "hasExtension", MinArgs: 1, MaxArgs: 1, Fn: fnHasExtension})
	Register(FuncDef{Name: "getExtensionValue", MinArgs: 1, MaxArgs: 1, Fn: fnGetExtensionValue})
	Register(FuncDef{Name: "getReferenceKey", MinArgs: 0, MaxArgs: 1, Fn: fnGetReferenceKey})
}

// referenceString pulls the reference string out of either a bare String
// (a reference used directly as a path target) or a Reference object's
// "reference" field.
func referenceString(v types.Value) string {
	switch t := v.(type) {
	case types.String:
		return t.Value()
	case *types.ObjectValue:
		if ref, ok := t.Get("reference"); ok {
			if s, ok := ref.(types.String); ok {
				return s.Value()
			}
		}
	}
	return ""
}

// fnResolve resolves each input Reference against the resolver installed on
// the context, skipping elements that aren't references and references the
// resolver can't find. Without a resolver installed at all, resolve()
// returns empty rather than erroring, since not every evaluation needs
// reference resolution wired up.
func fnResolve(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	resolver := ctx.GetResolver()
	if input.Empty() || resolver == nil {
		return types.Collection{}, nil
	}

	result := types.Collection{}
	for _, item := range input {
		reference := referenceString(item)
		if reference == "" {
			continue
		}
		resourceJSON, err := resolver.Resolve(ctx.Context(), reference)
		if err != nil {
			continue
		}
		col, err := types.JSONToCollection(resourceJSON)
		if err != nil {
			continue
		}
		result = append(result, col...)
	}
	return result, nil
}

// extensionsWithURL walks each input object's "extension" array and
// collects the ones whose "url" matches.
func extensionsWithURL(input types.Collection, url string) types.Collection {
	result := types.Collection{}
	for _, item := range input {
		obj, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}
		for _, ext := range obj.GetCollection("extension") {
			extObj, ok := ext.(*types.ObjectValue)
			if !ok {
				continue
			}
			if urlVal, ok := extObj.Get("url"); ok {
				if s, ok := urlVal.(types.String); ok && s.Value() == url {
					result = append(result, extObj)
				}
			}
		}
	}
	return result
}

func fnExtension(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() || len(args) == 0 {
		return types.Collection{}, nil
	}
	url, ok := argString(args[0])
	if !ok || url == "" {
		return types.Collection{}, nil
	}
	return extensionsWithURL(input, url), nil
}

func fnHasExtension(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	extensions, err := fnExtension(ctx, input, args)
	if err != nil {
		return nil, err
	}
	return boolResult(!extensions.Empty()), nil
}

// extensionValueFields lists the value[x] choice-type fields an Extension
// may carry its value under, in the order FHIR's StructureDefinition
// enumerates them; only one is ever populated on a given extension.
var extensionValueFields = []string{
	"valueString", "valueBoolean", "valueInteger", "valueDecimal",
	"valueDate", "valueDateTime", "valueTime", "valueCode",
	"valueCoding", "valueCodeableConcept", "valueQuantity",
	"valueReference", "valueIdentifier", "valuePeriod",
	"valueRange", "valueRatio", "valueAttachment",
	"valueUri", "valueUrl", "valueCanonical",
}

func fnGetExtensionValue(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	extensions, err := fnExtension(ctx, input, args)
	if err != nil {
		return nil, err
	}

	result := types.Collection{}
	for _, ext := range extensions {
		extObj, ok := ext.(*types.ObjectValue)
		if !ok {
			continue
		}
		for _, field := range extensionValueFields {
			if val, ok := extObj.Get(field); ok {
				result = append(result, val)
				break
			}
		}
	}
	return result, nil
}

// splitReference strips any server URL prefix off a reference (keeping at
// most one "ResourceType/id" segment pair) and reports the type and id
// parts separately when a type prefix is present.
func splitReference(reference string) (resourceType, id string) {
	idx := strings.LastIndex(reference, "/")
	if idx < 0 {
		return "", reference
	}
	beforeSlash := reference[:idx]
	if prior := strings.LastIndex(beforeSlash, "/"); prior >= 0 {
		beforeSlash = beforeSlash[prior+1:]
	}
	return beforeSlash, reference[idx+1:]
}

// fnGetReferenceKey extracts the resource type and/or id from a reference,
// selected via an optional "type"/"id"/"key" argument ("key", the default,
// keeps the full "ResourceType/id" form).
func fnGetReferenceKey(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	part := "key"
	if len(args) > 0 {
		if p, ok := argString(args[0]); ok {
			part = p
		}
	}

	result := types.Collection{}
	for _, item := range input {
		reference := referenceString(item)
		if reference == "" {
			continue
		}
		resourceType, id := splitReference(reference)

		switch part {
		case "type":
			if resourceType != "" {
				result = append(result, types.NewString(resourceType))
			}
		case "id":
			result = append(result, types.NewString(id))
		default:
			if resourceType != "" {
				result = append(result, types.NewString(resourceType+"/"+id))
			} else {
				result = append(result, types.NewString(id))
			}
		}
	}
	return result, nil
}
