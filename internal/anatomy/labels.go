// Package anatomy defines the fixed label dictionaries shared by the
// segmentation volumes: 25 vertebra levels and 5 tissue classes.
package anatomy

// Vertebra levels in label order, sacrum first, label ids 1-25.
// Some datasets may not contain every level.
var VertebraNames = []string{
	"S", "L5", "L4", "L3", "L2", "L1",
	"T12", "T11", "T10", "T9", "T8", "T7", "T6", "T5", "T4", "T3", "T2", "T1",
	"C7", "C6", "C5", "C4", "C3", "C2", "C1",
}

// Tissue classes in label order, label ids 1-5.
var TissueNames = []string{"Muscle", "IMAT", "VAT", "SAT", "Bone"}

var (
	vertebraLabels = buildLabelMap(VertebraNames)
	tissueLabels   = buildLabelMap(TissueNames)
)

func buildLabelMap(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, name := range names {
		m[name] = i + 1
	}
	return m
}

// VertebraLabels returns a copy of the vertebra name to label id mapping.
func VertebraLabels() map[string]int {
	return copyMap(vertebraLabels)
}

// TissueLabels returns a copy of the tissue name to label id mapping.
func TissueLabels() map[string]int {
	return copyMap(tissueLabels)
}

func copyMap(m map[string]int) map[string]int {
	cp := make(map[string]int, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// VertebraLabel returns the label id of a vertebra name.
func VertebraLabel(name string) (int, bool) {
	id, ok := vertebraLabels[name]
	return id, ok
}

// TissueLabel returns the label id of a tissue name.
func TissueLabel(name string) (int, bool) {
	id, ok := tissueLabels[name]
	return id, ok
}
