package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type CalculatorInput struct {
	A float64 `json:"a" jsonschema_description:"First operand."`
	B float64 `json:"b" jsonschema_description:"Second operand."`
}

var CalculatorDefinition = ToolDefinition{
	Name:        "calculator",
	Description: "Useful for performing basic calculations with numbers. Returns the sum of a and b.",
	InputSchema: CalculatorInputSchema,
	Function:    Calculator,
}

var CalculatorInputSchema = GenerateSchema[CalculatorInput]()

func Calculator(input json.RawMessage) (string, error) {
	var in CalculatorInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid calculator input: %w", err)
	}
	return fmt.Sprintf("The sum of %s and %s is %s", formatNumber(in.A), formatNumber(in.B), formatNumber(in.A+in.B)), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
