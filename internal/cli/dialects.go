package cli

import (
	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

func dialectNames() []string {
	return vocab.List()
}

// stageNames lists the built-in stages in their default order. Regions
// defined in the config file are not known at completion time.
func stageNames() []string {
	return highlight.DefaultOrder(highlight.DefaultRegions)
}
