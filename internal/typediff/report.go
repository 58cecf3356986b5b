package typediff

import (
	"fmt"
	"strings"
)

// ItemReport is one line of a report: a single property or child node diff.
type ItemReport struct {
	Name      string    `json:"name"`
	Operation Operation `json:"operation"`
	Severity  Severity  `json:"severity"`
}

// Report is a serializable snapshot of a DefinitionDiff.
type Report struct {
	NodeType   string       `json:"nodeType"`
	Severity   Severity     `json:"severity"`
	Mixin      Severity     `json:"mixin"`
	Supertypes Severity     `json:"supertypes"`
	Properties []ItemReport `json:"properties"`
	ChildNodes []ItemReport `json:"childNodes"`
}

// Report builds the structured report.
func (d *DefinitionDiff) Report() Report {
	return Report{
		NodeType:   d.Name(),
		Severity:   d.severity,
		Mixin:      d.mixin,
		Supertypes: d.supertypes,
		Properties: itemReports(d.properties.diffs),
		ChildNodes: itemReports(d.childNodes.diffs),
	}
}

func itemReports[D ItemDiff](diffs []D) []ItemReport {
	out := make([]ItemReport, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, ItemReport{Name: d.Name(), Operation: d.Operation(), Severity: d.Severity()})
	}
	return out
}

// String renders the diagnostic text report: node type name, mixin verdict,
// supertypes verdict, then one line per property and child node diff.
func (d *DefinitionDiff) String() string {
	var b strings.Builder
	b.WriteString("NodeTypeDiff[\n")
	fmt.Fprintf(&b, "\tnodeTypeName=%s,\n", d.Name())
	fmt.Fprintf(&b, "\tmixinFlagDiff=%s,\n", d.mixin)
	fmt.Fprintf(&b, "\tsupertypesDiff=%s,\n", d.supertypes)
	b.WriteString("\tpropertyDifferences=[\n")
	writeItemLines(&b, "PropertyDiff", d.properties.diffs)
	b.WriteString("\t],\n")
	b.WriteString("\tchildNodeDifferences=[\n")
	writeItemLines(&b, "ChildNodeDiff", d.childNodes.diffs)
	b.WriteString("\t]\n")
	b.WriteString("]\n")
	return b.String()
}

func writeItemLines[D ItemDiff](b *strings.Builder, kind string, diffs []D) {
	for i, d := range diffs {
		fmt.Fprintf(b, "\t\t%s[itemName=%s, type=%s, operation=%s]", kind, d.Name(), d.Severity(), d.Operation())
		if i < len(diffs)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
}
