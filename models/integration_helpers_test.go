package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
)

// setupIntegration boots throwaway MySQL and Redis containers, connects
// the config singletons against them, migrates the schema and returns a
// context carrying a test user. Each test gets a fresh database.
func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "backoffice_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// Model hooks write History records keyed by the context user.
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	return ctx
}

// seedSequences configures number patterns and counters for every
// document type so Create* calls can issue numbers.
func seedSequences(t *testing.T, ctx context.Context) {
	t.Helper()
	patterns := map[models.DocumentType]string{
		models.DocumentTypeJob:           "JOB-{year}-{counter:05d}",
		models.DocumentTypeEstimate:      "EST-{year}-{counter:05d}",
		models.DocumentTypeInvoice:       "INV-{year}{month:02d}-{counter:05d}",
		models.DocumentTypePurchaseOrder: "PO-{counter:05d}",
		models.DocumentTypeBill:          "BILL-{counter:05d}",
	}
	for docType, pattern := range patterns {
		if _, err := models.SetConfigurationValue(ctx, string(docType)+"_number_sequence", pattern); err != nil {
			t.Fatalf("seed %s sequence: %v", docType, err)
		}
		if _, err := models.SetConfigurationValue(ctx, string(docType)+"_counter", "0"); err != nil {
			t.Fatalf("seed %s counter: %v", docType, err)
		}
	}
}

// seedContact creates a contact, optionally attached to a new business.
func seedContact(t *testing.T, ctx context.Context, withBusiness bool) (*models.Contact, *models.Business) {
	t.Helper()
	var business *models.Business
	contactInput := &models.NewContact{FirstName: "Aye", LastName: "Chan"}
	if withBusiness {
		var err error
		business, err = models.CreateBusiness(ctx, &models.NewBusiness{Name: "Chan Electrical"})
		if err != nil {
			t.Fatalf("CreateBusiness: %v", err)
		}
		contactInput.BusinessId = &business.ID
	}
	contact, err := models.CreateContact(ctx, contactInput)
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	return contact, business
}

func seedJob(t *testing.T, ctx context.Context, contactId int) *models.Job {
	t.Helper()
	job, err := models.CreateJob(ctx, &models.NewJob{ContactId: contactId, Description: "Rewire office"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("backoffice-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("backoffice-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=backoffice_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
