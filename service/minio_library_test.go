package service

import (
	"testing"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

func TestNewMinioLibrary(t *testing.T) {
	library, err := NewMinioLibrary(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "compliance",
	})
	if err != nil {
		t.Fatalf("NewMinioLibrary failed: %v", err)
	}
	if library.bucket != "compliance" {
		t.Errorf("Unexpected bucket: %q", library.bucket)
	}
}

func TestNewMinioLibraryInvalidEndpoint(t *testing.T) {
	_, err := NewMinioLibrary(&config.MinioConfig{
		Endpoint: "http://host with spaces",
	})
	if err == nil {
		t.Error("Expected error for invalid endpoint")
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		agreementType model.AgreementType
		want          string
	}{
		{model.TypeDataProcessing, "standards/DPA.json"},
		{model.TypeJointController, "standards/JCA.json"},
		{model.TypeControllerToController, "standards/CCA.json"},
		{model.TypeProcessorToSubprocessor, "standards/PSA.json"},
		{model.TypeStandardContractual, "standards/SCC.json"},
	}

	for _, tt := range tests {
		if got := objectKey(tt.agreementType); got != tt.want {
			t.Errorf("objectKey(%s) = %q, want %q", tt.agreementType, got, tt.want)
		}
	}
}
