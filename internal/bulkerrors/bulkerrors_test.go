package bulkerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("missing driver.host")
	err := &ConfigError{Path: "driver.host", Err: cause}

	assert.Contains(t, err.Error(), "driver.host")
	assert.ErrorIs(t, err, cause)
}

func TestConnectorErrorReportsPosition(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ConnectorError{Resource: "file:///ips.csv", Position: 12, Err: cause}

	assert.Contains(t, err.Error(), "file:///ips.csv")
	assert.Contains(t, err.Error(), "12")
	assert.ErrorIs(t, err, cause)
}

func TestMappingErrorReportsField(t *testing.T) {
	cause := errors.New("not an integer")
	err := &MappingError{Resource: "file:///ips.csv", Position: 3, Field: "ip_count", Err: cause}

	assert.Contains(t, err.Error(), "ip_count")
	assert.ErrorIs(t, err, cause)
}

func TestInterruptErrorNamesOperation(t *testing.T) {
	err := &InterruptError{Operation: "load"}
	assert.Equal(t, "load interrupted", err.Error())
}

func TestTooManyErrorsErrorDistinguishesRatioFromCount(t *testing.T) {
	count := &TooManyErrorsError{Observed: 5, Ceiling: 3}
	assert.Contains(t, count.Error(), "ceiling 3")

	ratio := &TooManyErrorsError{Observed: 5, IsRatio: true}
	assert.Contains(t, ratio.Error(), "ratio")
	assert.NotContains(t, ratio.Error(), "ceiling 0")
}

func TestFatalErrorUnwraps(t *testing.T) {
	cause := errors.New("panic recovered")
	err := &FatalError{Err: cause}
	assert.ErrorIs(t, err, cause)
}

func TestBulkExecutionErrorIncludesTemplate(t *testing.T) {
	cause := errors.New("syntax error")
	err := &BulkExecutionError{Template: "INSERT INTO t VALUES (:a)", Err: cause}

	assert.Contains(t, err.Error(), "INSERT INTO t")
	assert.ErrorIs(t, err, cause)
}
