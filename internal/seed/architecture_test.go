package seed

import (
	"familycore/testutil"
	"testing"
)

func TestSeedLoadsWithoutEngine(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.InternalImportForbidden, testutil.ThirdPartyImport),
		"seed documents are raw data; normalization happens in the store")
}
