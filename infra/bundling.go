package infra

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/jsii-runtime-go"
	"go.uber.org/zap"
)

const bootstrapBinary = "bootstrap"

// GoFunctionCode builds the main package at entry (e.g. "./cmd/intake") into a
// provided.al2023 "bootstrap" binary. The build runs on the host toolchain;
// there is no Docker fallback. The asset hash follows the built binary, so
// changes anywhere in the module redeploy the function.
func GoFunctionCode(entry string) awslambda.Code {
	return awslambda.Code_FromAsset(jsii.String(entry), &awss3assets.AssetOptions{
		AssetHashType: awscdk.AssetHashType_OUTPUT,
		Bundling: &awscdk.BundlingOptions{
			Image: awscdk.DockerImage_FromRegistry(jsii.String("local-go-bundling-only")),
			Local: NewLocalGoBundling(entry, bootstrapBinary),
		},
	})
}

type LocalGoBundling struct {
	entry      string
	binaryName string
}

var _ awscdk.ILocalBundling = &LocalGoBundling{}

func NewLocalGoBundling(entry string, binaryName string) *LocalGoBundling {
	return &LocalGoBundling{entry: entry, binaryName: binaryName}
}

func (l *LocalGoBundling) TryBundle(outputDir *string, options *awscdk.BundlingOptions) *bool {
	var extra map[string]*string
	if options != nil && options.Environment != nil {
		extra = *options.Environment
	}
	cmd := l.command(*outputDir, extra)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		zap.L().Error("go build failed",
			zap.String("entry", l.entry),
			zap.Error(err),
			zap.String("stdout", stdout.String()),
			zap.String("stderr", stderr.String()))
		return jsii.Bool(false)
	}

	zap.L().Info("go binary built", zap.String("entry", l.entry), zap.String("output", *outputDir))
	return jsii.Bool(true)
}

func (l *LocalGoBundling) command(outputDir string, extraEnv map[string]*string) *exec.Cmd {
	args := []string{
		"build",
		"-tags", "lambda.norpc",
		"-trimpath",
		"-ldflags", "-s -w",
		"-o", filepath.Join(outputDir, l.binaryName),
		l.entry,
	}

	// host environment first: later duplicates win, so the target settings stick.
	env := append([]string{}, os.Environ()...)
	for k, v := range extraEnv {
		if v != nil {
			env = append(env, fmt.Sprintf("%s=%s", k, *v))
		}
	}
	env = append(env,
		"GOOS=linux",
		"GOARCH=amd64",
		"CGO_ENABLED=0",
	)

	cmd := exec.Command("go", args...)
	cmd.Env = env
	return cmd
}
