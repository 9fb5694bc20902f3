package e2e

import (
	"github.com/cucumber/godog"

	"kubecred/e2e/steps/common"
	"kubecred/e2e/steps/credential"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	credential.RegisterSteps(ctx, tc)
}
