// Package pipeline publishes values to the Azure Pipelines agent through
// logging commands written to stdout.
package pipeline

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

const AssetFilenameVariable = "MAVEN_REPOSITORY_ASSET_FILENAME"

var valueEscaper = strings.NewReplacer(
	"%", "%AZP25",
	"\r", "%0D",
	"\n", "%0A",
)

type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) Writer {
	return Writer{w: w}
}

// SetOutputVariable sets a non-secret output variable readable by later jobs.
func (p Writer) SetOutputVariable(name, value string) error {
	_, err := fmt.Fprintf(p.w, "##vso[task.setvariable variable=%s;isSecret=false;isOutput=true;]%s\n",
		name, valueEscaper.Replace(value))
	if err != nil {
		return xerrors.Errorf("unable to write output variable %s: %w", name, err)
	}
	return nil
}
