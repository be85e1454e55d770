package infra

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// LogInfo adds an INFO annotation to scope. Annotations are printed by `cdk synth`.
func LogInfo(scope constructs.Construct, constructID string, format string, args ...any) {
	awscdk.Annotations_Of(scope).AddInfo(jsii.String(annotationMessage(scope, constructID, format, args...)))
}

// LogWarning adds a WARNING annotation to scope. `cdk deploy --strict` fails on these.
func LogWarning(scope constructs.Construct, constructID string, format string, args ...any) {
	awscdk.Annotations_Of(scope).AddWarning(jsii.String(annotationMessage(scope, constructID, format, args...)))
}

// annotationMessage prefixes the message with constructID unless the
// construct path already ends with it.
func annotationMessage(scope constructs.Construct, constructID string, format string, args ...any) string {
	message := fmt.Sprintf(format, args...)
	if constructID == "" {
		return message
	}
	if strings.HasSuffix(*scope.Node().Path(), "/"+constructID) || *scope.Node().Path() == constructID {
		return message
	}
	return fmt.Sprintf("[%s] %s", constructID, message)
}
