package sensor

import (
	"strings"

	"thermal_telemetry/internal/models"
)

// chipKindPrefixes maps chip name prefixes to component kinds.
var chipKindPrefixes = []struct {
	prefix string
	kind   models.SensorKind
}{
	{"coretemp", models.KindCPU},
	{"k10temp", models.KindCPU},
	{"k8temp", models.KindCPU},
	{"zenpower", models.KindCPU},
	{"cpu", models.KindCPU},
	{"amdgpu", models.KindGPU},
	{"radeon", models.KindGPU},
	{"nouveau", models.KindGPU},
	{"nvidia", models.KindGPU},
	{"intel_gpu", models.KindGPU},
	{"i915", models.KindGPU},
	{"nvme", models.KindHDD},
	{"drivetemp", models.KindHDD},
	{"smart-", models.KindHDD},
	{"ata", models.KindHDD},
	{"pch", models.KindMotherboard},
	{"acpi", models.KindMotherboard},
	{"it87", models.KindMotherboard},
	{"nct", models.KindMotherboard},
	{"w83", models.KindMotherboard},
	{"f71", models.KindMotherboard},
	{"asus", models.KindMotherboard},
	{"thinkpad", models.KindMotherboard},
	{"dell", models.KindMotherboard},
}

// chipKindSubstrings catch vendor names embedded mid-label.
var chipKindSubstrings = []struct {
	sub  string
	kind models.SensorKind
}{
	{"cpu", models.KindCPU},
	{"gpu", models.KindGPU},
	{"nvme", models.KindHDD},
}

// ClassifyChip returns the component kind for a chip label.
func ClassifyChip(chip string) models.SensorKind {
	lower := strings.ToLower(strings.TrimSpace(chip))
	for _, e := range chipKindPrefixes {
		if strings.HasPrefix(lower, e.prefix) {
			return e.kind
		}
	}
	for _, e := range chipKindSubstrings {
		if strings.Contains(lower, e.sub) {
			return e.kind
		}
	}
	return models.KindOther
}
