package fhirpath

import (
	"testing"
)

var observationResource = []byte(`{
	"resourceType": "Observation",
	"id": "bp-reading",
	"status": "final",
	"category": [
		{"coding": [{"system": "http://terminology.hl7.org/CodeSystem/observation-category", "code": "vital-signs"}]}
	],
	"code": {
		"coding": [{"system": "http://loinc.org", "code": "85354-9", "display": "Blood pressure panel"}]
	},
	"subject": {"reference": "Patient/example"},
	"effectiveDateTime": "2023-06-15T10:30:00Z",
	"component": [
		{
			"code": {"coding": [{"system": "http://loinc.org", "code": "8480-6"}]},
			"valueQuantity": {"value": 120, "unit": "mmHg", "system": "http://unitsofmeasure.org", "code": "mm[Hg]"}
		},
		{
			"code": {"coding": [{"system": "http://loinc.org", "code": "8462-4"}]},
			"valueQuantity": {"value": 80, "unit": "mmHg", "system": "http://unitsofmeasure.org", "code": "mm[Hg]"}
		}
	]
}`)

func BenchmarkCompilePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Compile("Observation.component.value.value")
	}
}

func BenchmarkCompileCacheHit(b *testing.B) {
	// Repeated compilation of the same expression should be served from
	// the expression cache rather than re-tokenizing and re-parsing each time.
	_, _ = GetCached("Observation.component.code.coding.code")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = GetCached("Observation.component.code.coding.code")
	}
}

func BenchmarkEvaluateSingleField(b *testing.B) {
	expr := MustCompile("Observation.status")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateNestedCollection(b *testing.B) {
	expr := MustCompile("Observation.component.code.coding.code")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateWhereAndSelect(b *testing.B) {
	expr := MustCompile("Observation.component.where(code.coding.code = '8480-6').select(value.value)")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateQuantityArithmetic(b *testing.B) {
	expr := MustCompile("Observation.component[0].value.value + Observation.component[1].value.value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateDateTimeComponent(b *testing.B) {
	expr := MustCompile("Observation.effectiveDateTime.year()")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateMathFunctions(b *testing.B) {
	expr := MustCompile("81.sqrt().power(2).truncate()")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateStringFunctions(b *testing.B) {
	expr := MustCompile("Observation.status.upper().replace('FINAL', 'amended').lower()")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateExistenceCheck(b *testing.B) {
	expr := MustCompile("Observation.component.exists(value.value > 100)")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateBooleanLogic(b *testing.B) {
	expr := MustCompile("Observation.status = 'final' and Observation.component.count() = 2")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkEvaluateTypeFiltering(b *testing.B) {
	expr := MustCompile("Observation.component.value.ofType(Quantity)")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}

func BenchmarkDirectEvaluate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Evaluate(observationResource, "Observation.component.value.value")
	}
}

func BenchmarkEvaluateAggregate(b *testing.B) {
	expr := MustCompile("Observation.component.value.value.aggregate($this + $total, 0)")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = expr.Evaluate(observationResource)
	}
}
