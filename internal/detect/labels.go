package detect

import "fmt"

// Class labels for the layout-detection model, indexed by class id. The
// table is fixed per model version and validated against the model's
// reported class count at startup.
var classLabels = [...]string{
	0:  "caption",
	1:  "footnote",
	2:  "formula",
	3:  "list_item",
	4:  "page_footer",
	5:  "page_header",
	6:  "picture",
	7:  "section_header",
	8:  "table",
	9:  "text",
	10: "title",
}

// ClassPicture is the class id for croppable picture regions.
const ClassPicture = 6

// ClassAny disables class filtering in Detect.
const ClassAny = -1

// LabelFor returns the label for a class id, or false for unknown ids.
func LabelFor(classID int) (string, bool) {
	if classID < 0 || classID >= len(classLabels) {
		return "", false
	}
	return classLabels[classID], true
}

// ValidateLabels checks the label table against the class count the model
// reports. A mismatch means the deployed model and this build disagree on
// the label set.
func ValidateLabels(modelClassCount int) error {
	if modelClassCount != len(classLabels) {
		return fmt.Errorf("model reports %d classes, label table has %d", modelClassCount, len(classLabels))
	}
	return nil
}
