package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	QueueName               = "inquiry-processing-queue"
	QueueVisibilitySeconds  = 45
	ProcessorBatchSize      = 10
	ProcessorTimeoutSeconds = 30
	IntakeMemoryMB          = 256
	IntakeTimeoutSeconds    = 10
	TablePartitionKey       = "id"
	InquiriesPath           = "inquiries"
	SendEmailPolicySid      = "SendEmailPolicySid"

	lambdaBootstrapHandler = "bootstrap"
	restAPIName            = "EmailService"
)

type EmailServiceStackProps struct {
	awscdk.StackProps
	// AdminEmail receives every inquiry notification.
	AdminEmail string
	// SenderEmail is the SES identity notifications are sent from. Empty means
	// the admin address sends to itself.
	SenderEmail   string
	IntakeCode    awslambda.Code
	ProcessorCode awslambda.Code
}

// EmailServiceStack exposes the constructs so tests and other stacks can
// reference them.
type EmailServiceStack struct {
	Stack               awscdk.Stack
	Queue               awssqs.Queue
	Table               awsdynamodb.Table
	AdminEmailParameter awsssm.StringParameter
	IntakeFunction      awslambda.Function
	ProcessorFunction   awslambda.Function
	Api                 awsapigateway.RestApi
}

// NewEmailServiceStack declares the inquiry pipeline:
// POST /inquiries -> intake function -> table + queue -> processor function -> SES.
func NewEmailServiceStack(scope constructs.Construct, id string, props *EmailServiceStackProps) *EmailServiceStack {
	if props == nil || props.IntakeCode == nil || props.ProcessorCode == nil {
		panic(fmt.Sprintf("intake and processor code are required for stack %s", id))
	}
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)

	adminEmail := PlaceholderAdminEmail
	if props.AdminEmail != "" {
		adminEmail = props.AdminEmail
	}
	if adminEmail == PlaceholderAdminEmail {
		LogWarning(stack, id, "admin email is the placeholder %q; set the adminEmail context key before deploying", adminEmail)
	}

	out := &EmailServiceStack{Stack: stack}

	out.Queue = awssqs.NewQueue(stack, jsii.String("InquiryProcessingQueue"), &awssqs.QueueProps{
		QueueName:         jsii.String(QueueName),
		VisibilityTimeout: awscdk.Duration_Seconds(jsii.Number(QueueVisibilitySeconds)),
	})

	out.Table = awsdynamodb.NewTable(stack, jsii.String("InquiryTable"), &awsdynamodb.TableProps{
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String(TablePartitionKey),
			Type: awsdynamodb.AttributeType_STRING,
		},
		BillingMode:         awsdynamodb.BillingMode_PAY_PER_REQUEST,
		Encryption:          awsdynamodb.TableEncryption_DEFAULT,
		PointInTimeRecovery: jsii.Bool(false),
	})

	out.ProcessorFunction = newProcessorFunction(stack, out.Queue, out.Table, props)

	out.AdminEmailParameter = awsssm.NewStringParameter(stack, jsii.String("AdminEmailParameter"), &awsssm.StringParameterProps{
		StringValue: jsii.String(adminEmail),
		Description: jsii.String("Recipient of inquiry notification emails"),
	})

	out.IntakeFunction = awslambda.NewFunction(stack, jsii.String("CreateInquiry"), &awslambda.FunctionProps{
		Code:         props.IntakeCode,
		Handler:      jsii.String(lambdaBootstrapHandler),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: awslambda.Architecture_X86_64(),
		MemorySize:   jsii.Number(IntakeMemoryMB),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(IntakeTimeoutSeconds)),
		Environment: &map[string]*string{
			"INQUIRY_TABLE_NAME":           out.Table.TableName(),
			"INQUIRY_PROCESSING_QUEUE_URL": out.Queue.QueueUrl(),
			"ADMIN_EMAIL":                  jsii.String(adminEmail),
			"ADMIN_EMAIL_PARAMETER":        out.AdminEmailParameter.ParameterName(),
		},
	})
	out.Table.GrantReadWriteData(out.IntakeFunction)
	out.Queue.GrantSendMessages(out.IntakeFunction)
	out.AdminEmailParameter.GrantRead(out.IntakeFunction)

	out.Api = awsapigateway.NewRestApi(stack, jsii.String("EmailServiceApi"), &awsapigateway.RestApiProps{
		RestApiName: jsii.String(restAPIName),
	})
	integration := awsapigateway.NewLambdaIntegration(out.IntakeFunction, nil)
	inquiries := out.Api.Root().AddResource(jsii.String(InquiriesPath), nil)
	method := inquiries.AddMethod(jsii.String("POST"), integration, &awsapigateway.MethodOptions{
		AuthorizationType: awsapigateway.AuthorizationType_NONE,
	})
	LogWarning(method, "", "POST /%s accepts unauthenticated requests", InquiriesPath)

	awscdk.NewCfnOutput(stack, jsii.String("InquiriesUrl"), &awscdk.CfnOutputProps{
		Value: out.Api.UrlForPath(jsii.String("/" + InquiriesPath)),
	})
	awscdk.NewCfnOutput(stack, jsii.String("QueueUrl"), &awscdk.CfnOutputProps{
		Value: out.Queue.QueueUrl(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("TableName"), &awscdk.CfnOutputProps{
		Value: out.Table.TableName(),
	})

	return out
}

func newProcessorFunction(stack awscdk.Stack, queue awssqs.IQueue, table awsdynamodb.ITable, props *EmailServiceStackProps) awslambda.Function {
	env := map[string]*string{
		"INQUIRY_TABLE_NAME": table.TableName(),
	}
	if props.SenderEmail != "" {
		env["SENDER_EMAIL"] = jsii.String(props.SenderEmail)
	}

	fn := awslambda.NewFunction(stack, jsii.String("ProcessQI"), &awslambda.FunctionProps{
		Code:         props.ProcessorCode,
		Handler:      jsii.String(lambdaBootstrapHandler),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: awslambda.Architecture_X86_64(),
		// must stay below the queue visibility timeout
		Timeout:     awscdk.Duration_Seconds(jsii.Number(ProcessorTimeoutSeconds)),
		Environment: &env,
	})

	fn.AddEventSource(awslambdaeventsources.NewSqsEventSource(queue, &awslambdaeventsources.SqsEventSourceProps{
		BatchSize:               jsii.Number(ProcessorBatchSize),
		Enabled:                 jsii.Bool(true),
		ReportBatchItemFailures: jsii.Bool(true),
	}))

	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings("ses:*"),
		Resources: jsii.Strings("*"),
		Sid:       jsii.String(SendEmailPolicySid),
	}))

	// existence check before sending
	table.GrantReadData(fn)

	LogInfo(fn, "", "consumes %s in batches of %d", QueueName, ProcessorBatchSize)
	return fn
}
