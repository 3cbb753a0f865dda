package mobile

import (
	"errors"

	"github.com/casualjim/mobileuse/insight"
	"github.com/casualjim/mobileuse/tool"
)

// Executor returns the tools bound to the executor, in the order the model sees them.
func Executor(extractor insight.Extractor) (*tool.Catalog, error) {
	if extractor == nil {
		return nil, errors.New("executor tools need an insight extractor")
	}
	return tool.NewCatalog(
		InputText,
		ListPackages(extractor),
	)
}
