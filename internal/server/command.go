package server

import (
	"fmt"
	"strconv"
	"strings"

	"backoffice/internal/models"
)

// command is one parsed request line: a verb plus its positional
// arguments. It lives for a single request/response cycle.
type command struct {
	Verb string
	Args []string
}

// cmdSpec pins down the closed command set. minArgs/maxArgs bound the
// argument count; joinTail folds everything past the fixed arguments
// into the last one, so message text may contain the field separator.
type cmdSpec struct {
	minArgs  int
	maxArgs  int
	joinTail bool
	public   bool // usable before LOGIN
}

var cmdSpecs = map[string]cmdSpec{
	"LOGIN":  {minArgs: 2, maxArgs: 2, public: true},
	"LOGOUT": {public: true},
	"EXIT":   {public: true},

	"REQUEST_CHAT":         {},
	"CANCEL_CHAT_REQUEST":  {},
	"GET_WAITING_REQUESTS": {},
	"ACCEPT_CHAT_REQUEST":  {minArgs: 1, maxArgs: 1},
	"SEND_MESSAGE":         {minArgs: 2, maxArgs: 2, joinTail: true},
	"GET_CHAT_MESSAGES":    {minArgs: 1, maxArgs: 1},
	"GET_CHAT_HISTORY":     {minArgs: 1, maxArgs: 1},
	"END_CHAT":             {minArgs: 1, maxArgs: 1},
	"JOIN_CHAT":            {minArgs: 1, maxArgs: 1},
	"GET_USER_CHAT_STATUS": {},
	"GET_MY_CHAT":          {},

	"SELL":                     {minArgs: 3, maxArgs: 4},
	"ADD_PRODUCT_TO_INVENTORY": {minArgs: 3, maxArgs: 3},
	"REMOVE_FROM_INVENTORY":    {minArgs: 3, maxArgs: 3},
	"GET_QUANTITY":             {minArgs: 2, maxArgs: 2},
	"GET_TOTAL_QUANTITY":       {minArgs: 1, maxArgs: 1},
	"GET_SALES_REPORT":         {minArgs: 1, maxArgs: 2},

	"ADD_PRODUCT_TO_CATALOG": {minArgs: 4, maxArgs: 4},
	"SET_PRODUCT_ACTIVE":     {minArgs: 2, maxArgs: 2},
	"LIST_PRODUCTS":          {},

	"UPDATE_CUSTOMER": {minArgs: 4, maxArgs: 4},
	"ADD_CUSTOMER":   {minArgs: 4, maxArgs: 4},
	"LIST_CUSTOMERS": {},

	"CREATE_USER":     {minArgs: 5, maxArgs: 5},
	"UPDATE_USER":     {minArgs: 3, maxArgs: 3},
	"SET_USER_ACTIVE": {minArgs: 2, maxArgs: 2},
	"LIST_USERS":      {},
	"GET_USER":        {minArgs: 1, maxArgs: 1},
	"DELETE_USER":     {minArgs: 1, maxArgs: 1},

	"CREATE_EMPLOYEE":          {minArgs: 7, maxArgs: 7},
	"UPDATE_EMPLOYEE":          {minArgs: 6, maxArgs: 6},
	"SET_EMPLOYEE_ACTIVE":      {minArgs: 2, maxArgs: 2},
	"DELETE_EMPLOYEE":          {minArgs: 1, maxArgs: 1},
	"LIST_EMPLOYEES":           {},
	"GET_EMPLOYEE":             {minArgs: 1, maxArgs: 1},
	"LIST_EMPLOYEES_BY_BRANCH": {minArgs: 1, maxArgs: 1},
}

// parseCommand decodes one raw request line. Unknown verbs and wrong
// argument counts are protocol errors, never connection killers.
func parseCommand(line string) (command, cmdSpec, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return command{}, cmdSpec{}, fmt.Errorf("%w: empty command", models.ErrProtocol)
	}

	parts := strings.Split(line, ";")
	verb := strings.ToUpper(strings.TrimSpace(parts[0]))
	args := parts[1:]

	spec, ok := cmdSpecs[verb]
	if !ok {
		return command{}, cmdSpec{}, fmt.Errorf("%w: unknown command %s", models.ErrProtocol, verb)
	}

	if spec.joinTail && len(args) > spec.maxArgs {
		joined := strings.Join(args[spec.maxArgs-1:], ";")
		args = append(args[:spec.maxArgs-1:spec.maxArgs-1], joined)
	}
	if len(args) < spec.minArgs || len(args) > spec.maxArgs {
		return command{}, cmdSpec{}, fmt.Errorf("%w: %s expects %d to %d arguments, got %d",
			models.ErrProtocol, verb, spec.minArgs, spec.maxArgs, len(args))
	}

	return command{Verb: verb, Args: args}, spec, nil
}

func parseQty(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: quantity must be an integer", models.ErrProtocol)
	}
	return n, nil
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price must be a number", models.ErrProtocol)
	}
	return p, nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: expected true or false", models.ErrProtocol)
	}
	return b, nil
}
