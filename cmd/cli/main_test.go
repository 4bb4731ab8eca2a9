package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/sales-dashboard/internal/apperr"
)

const snapshot = "../../internal/store/memstore/testdata/transactions.json"

func runCLI(t *testing.T, command string, args ...string) (map[string]interface{}, error) {
	t.Helper()
	t.Setenv("TZ_NAME", "UTC")

	var out bytes.Buffer
	args = append([]string{"-backend", "memory", "-snapshot", snapshot}, args...)
	if err := run(context.Background(), command, args, &out); err != nil {
		return nil, err
	}

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
	return body, nil
}

func TestList(t *testing.T) {
	body, err := runCLI(t, "list", "-regions", "South", "-sort", "quantity")
	require.NoError(t, err)

	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "Priya (Pri) Nair", data[0].(map[string]interface{})["Customer Name"])
	assert.Equal(t, "Arjun Mehta", data[1].(map[string]interface{})["Customer Name"])
	assert.Equal(t, 2.0, body["pagination"].(map[string]interface{})["total"])
}

func TestList_InvalidNumber(t *testing.T) {
	_, err := runCLI(t, "list", "-age-min", "abc")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, `Invalid ageMin parameter: "abc" is not a number`, apperr.PublicMessage(err))
}

func TestGet(t *testing.T) {
	body, err := runCLI(t, "get", "-id", "650000000000000000000004")
	require.NoError(t, err)
	assert.Equal(t, "Rahul.Verma", body["Customer Name"])
	assert.Equal(t, "919900011122", body["Phone Number"])

	_, err = runCLI(t, "get", "-id", "650000000000000000000099")
	assert.ErrorContains(t, err, "not found")

	_, err = runCLI(t, "get")
	assert.True(t, apperr.IsValidation(err))
}

func TestOptions(t *testing.T) {
	body, err := runCLI(t, "options")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"East", "North", "South", "West"}, body["regions"])
	assert.Equal(t, []interface{}{"Female", "Male"}, body["genders"])
}

func TestAnalytics(t *testing.T) {
	body, err := runCLI(t, "analytics")
	require.NoError(t, err)
	assert.Equal(t, 5.0, body["totalTransactions"])
	assert.Equal(t, 9569.0, body["totalRevenue"])
}

func TestUnknownCommand(t *testing.T) {
	err := run(context.Background(), "delete", nil, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errUsage))
}

func TestInvalidBackend(t *testing.T) {
	err := run(context.Background(), "options", []string{"-backend", "sqlite"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid store backend")
}
