package msdeploy

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/deployengine"
)

// ParametersFileName is the parameter declaration file looked up in the root of an iisApp source.
const ParametersFileName = "parameters.xml"

type parametersFile struct {
	XMLName    xml.Name            `xml:"parameters"`
	Parameters []declaredParameter `xml:"parameter"`
}

type declaredParameter struct {
	Name         string `xml:"name,attr"`
	Description  string `xml:"description,attr"`
	DefaultValue string `xml:"defaultValue,attr"`
}

// loadDeclaredParameters reads the parameters declared for the source. A missing file declares none.
func loadDeclaredParameters(fs vfs.FS, sourcePath string) (string, *deployengine.SyncParameters, error) {
	path := filepath.Join(sourcePath, ParametersFileName)

	bs, err := fs.ReadFile(path)
	if os.IsNotExist(err) {
		params, _ := deployengine.NewSyncParameters()
		return "", params, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f parametersFile
	if err := xml.Unmarshal(bs, &f); err != nil {
		return "", nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var declared []*deployengine.SyncParameter
	for _, p := range f.Parameters {
		declared = append(declared, deployengine.NewSyncParameter(p.Name, p.Name, p.Description, p.DefaultValue))
	}

	params, err := deployengine.NewSyncParameters(declared...)
	if err != nil {
		return "", nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return path, params, nil
}
