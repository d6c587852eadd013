package server_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docbridge/docbridge/citest/testutil"
)

var (
	bridge    *testutil.TestBridge
	docServer *testutil.StubDocumentServer
)

func TestBridge(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bridge Suite")
}

var _ = BeforeSuite(func() {
	var err error
	bridge, err = testutil.StartTestBridge()
	Expect(err).NotTo(HaveOccurred(), "Failed to start test bridge")

	docServer = testutil.NewStubDocumentServer()
})

var _ = AfterSuite(func() {
	if docServer != nil {
		docServer.Close()
	}
	if bridge != nil {
		bridge.Stop()
	}
})
