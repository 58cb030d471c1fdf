package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backoffice/internal/auth"
	"backoffice/internal/models"
	"backoffice/internal/permissions"
	"backoffice/internal/sales"
)

type conn struct {
	id  string
	raw net.Conn
	srv *Server
}

func newConn(raw net.Conn, srv *Server) *conn {
	return &conn{id: uuid.NewString(), raw: raw, srv: srv}
}

// handle runs the read-parse-dispatch-reply loop until EXIT or the
// connection drops. Whatever ends the loop, the session and any chat
// state the user held are released.
func (c *conn) handle() {
	defer func() { _ = c.raw.Close() }()
	defer c.cleanup()

	if _, err := fmt.Fprintf(c.raw, "CONNECTED\n"); err != nil {
		return
	}

	scanner := bufio.NewScanner(c.raw)
	// the initial cap must not exceed the limit, or Scanner raises the
	// effective maximum token size to it
	bufCap := 4096
	if c.srv.cfg.MaxLineBytes < bufCap {
		bufCap = c.srv.cfg.MaxLineBytes
	}
	scanner.Buffer(make([]byte, 0, bufCap), c.srv.cfg.MaxLineBytes)

	for {
		if c.srv.cfg.ReadTimeout > 0 {
			_ = c.raw.SetReadDeadline(time.Now().Add(c.srv.cfg.ReadTimeout))
		}
		if !scanner.Scan() {
			if errors.Is(scanner.Err(), bufio.ErrTooLong) {
				c.reply(replyError(fmt.Errorf("%w: request line too long", models.ErrProtocol)))
			}
			return
		}

		cmd, spec, err := parseCommand(scanner.Text())
		if err != nil {
			if !c.reply(replyError(err)) {
				return
			}
			continue
		}
		if cmd.Verb == "EXIT" {
			return
		}

		if !c.reply(c.dispatch(cmd, spec)) {
			return
		}
	}
}

func (c *conn) reply(line string) bool {
	_, err := fmt.Fprintf(c.raw, "%s\n", line)
	return err == nil
}

// cleanup mirrors LOGOUT for connections that never sent one. No logged-in
// state may survive a dropped socket.
func (c *conn) cleanup() {
	sess, ok := c.srv.deps.Sessions.Remove(c.id)
	if !ok {
		return
	}
	matches := c.srv.deps.Chat.ReleaseUser(sess.Username)
	c.srv.deps.Audit.Event("disconnect", sess.Username, zap.String("branch", sess.BranchID))
	for _, m := range matches {
		c.srv.deps.Audit.ChatEvent(m.ChatID, "chat_started",
			fmt.Sprintf("%s matched with %s", m.Requester, m.Partner))
	}
}

func replyError(err error) string {
	if models.IsAuthError(err) {
		return "AUTH_ERROR;" + err.Error()
	}
	return "ERROR;" + err.Error()
}

func (c *conn) dispatch(cmd command, spec cmdSpec) string {
	sess, authed := c.srv.deps.Sessions.ByConn(c.id)
	if !spec.public && !authed {
		return replyError(models.ErrNotLoggedIn)
	}

	reply, err := c.route(cmd, sess, authed)
	if err != nil {
		return replyError(err)
	}
	return reply
}

func (c *conn) route(cmd command, sess models.Session, authed bool) (string, error) {
	d := c.srv.deps
	switch cmd.Verb {
	case "LOGIN":
		return c.login(cmd.Args[0], cmd.Args[1], authed)

	case "LOGOUT":
		if sess, ok := d.Sessions.Remove(c.id); ok {
			d.Chat.ReleaseUser(sess.Username)
			d.Audit.Event("logout", sess.Username, zap.String("branch", sess.BranchID))
		}
		return "LOGOUT_SUCCESS", nil

	case "REQUEST_CHAT":
		if !permissions.CanRequestChat(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		match, req, err := d.Chat.RequestChat(sess.Username, sess.BranchID)
		if err != nil {
			return "", err
		}
		if match != nil {
			d.Audit.ChatEvent(match.ChatID, "chat_started",
				fmt.Sprintf("%s matched with %s", match.Requester, match.Partner))
			return fmt.Sprintf("OK;MATCHED;%s;%s;%s", match.ChatID, match.Requester, match.Partner), nil
		}
		return "OK;QUEUE;" + req.ID, nil

	case "CANCEL_CHAT_REQUEST":
		if !d.Chat.CancelChatRequest(sess.Username) {
			return "", errors.New("No pending request")
		}
		return "OK;Request cancelled", nil

	case "GET_WAITING_REQUESTS":
		return c.waitingRequests(sess.BranchID), nil

	case "ACCEPT_CHAT_REQUEST":
		match, err := d.Chat.AcceptChatRequest(sess.Username, cmd.Args[0])
		if err != nil {
			return "", err
		}
		d.Audit.ChatEvent(match.ChatID, "chat_started",
			fmt.Sprintf("%s accepted request from %s", match.Partner, match.Requester))
		return fmt.Sprintf("OK;MATCHED;%s;%s;%s", match.ChatID, match.Requester, match.Partner), nil

	case "SEND_MESSAGE":
		if err := d.Chat.AddMessage(cmd.Args[0], sess.Username, cmd.Args[1]); err != nil {
			return "", err
		}
		return "OK;Message sent", nil

	case "GET_CHAT_MESSAGES", "GET_CHAT_HISTORY":
		return c.chatMessages(cmd.Args[0])

	case "END_CHAT":
		return c.endChat(cmd.Args[0], sess)

	case "JOIN_CHAT":
		if !permissions.CanJoinChat(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		if err := d.Chat.JoinChat(cmd.Args[0], sess.Username, "Manager"); err != nil {
			return "", err
		}
		d.Audit.ChatEvent(cmd.Args[0], "manager_joined", sess.Username)
		return "OK;Manager joined chat", nil

	case "GET_USER_CHAT_STATUS":
		return "OK;" + string(d.Chat.Status(sess.Username)), nil

	case "GET_MY_CHAT":
		cs, ok := d.Chat.UserChat(sess.Username)
		if !ok {
			return "", fmt.Errorf("%w: no active chat", models.ErrNotFound)
		}
		return fmt.Sprintf("OK;%s;%s", cs.ID, strings.Join(cs.Participants, ",")), nil

	case "SELL":
		return c.sell(cmd.Args, sess)

	case "ADD_PRODUCT_TO_INVENTORY":
		return c.adjustStock(cmd.Args, sess, d.Inventory.Add, "Stock added")

	case "REMOVE_FROM_INVENTORY":
		return c.adjustStock(cmd.Args, sess, d.Inventory.Remove, "Stock removed")

	case "GET_QUANTITY":
		branchID := strings.TrimSpace(cmd.Args[1])
		if !permissions.CanAccessBranch(sess.UserType, sess.BranchID, branchID) {
			return "", models.ErrUnauthorized
		}
		return fmt.Sprintf("OK;%d", d.Inventory.Quantity(branchID, cmd.Args[0])), nil

	case "GET_TOTAL_QUANTITY":
		if !permissions.CanViewAllBranches(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		return fmt.Sprintf("OK;%d", d.Inventory.TotalQuantity(strings.TrimSpace(cmd.Args[0]))), nil

	case "GET_SALES_REPORT":
		return c.salesReport(cmd.Args, sess)

	case "ADD_PRODUCT_TO_CATALOG":
		return c.addProduct(cmd.Args, sess)

	case "SET_PRODUCT_ACTIVE":
		return c.setProductActive(cmd.Args, sess)

	case "LIST_PRODUCTS":
		return c.listProducts(), nil

	case "ADD_CUSTOMER":
		return c.addCustomer(cmd.Args)

	case "UPDATE_CUSTOMER":
		return c.updateCustomer(cmd.Args)

	case "LIST_CUSTOMERS":
		return c.listCustomers(), nil

	case "CREATE_USER":
		return c.createUser(cmd.Args, sess)

	case "UPDATE_USER":
		if !permissions.CanManageUsers(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		if err := d.Auth.UpdateUser(cmd.Args[0], cmd.Args[1], cmd.Args[2]); err != nil {
			return "", err
		}
		c.persistAccount(cmd.Args[0])
		return "OK;User updated", nil

	case "SET_USER_ACTIVE":
		return c.setUserActive(cmd.Args, sess)

	case "LIST_USERS":
		if !permissions.CanManageUsers(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		return c.listUsers(), nil

	case "GET_USER":
		target := auth.Normalize(cmd.Args[0])
		if target != sess.Username && !permissions.CanManageUsers(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		acc, err := d.Auth.GetUser(target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("OK;%s;%s;%s;%s;%t",
			acc.Username, acc.UserType, acc.BranchID, acc.EmployeeNumber, acc.Active), nil

	case "DELETE_USER":
		if !permissions.CanManageUsers(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		if err := d.Auth.DeleteUser(cmd.Args[0]); err != nil {
			return "", err
		}
		c.persist(func(s Store) error { return s.DeleteAccount(auth.Normalize(cmd.Args[0])) })
		return "OK;User deleted", nil

	case "CREATE_EMPLOYEE":
		return c.createEmployee(cmd.Args, sess)

	case "UPDATE_EMPLOYEE":
		if !permissions.CanManageEmployees(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		if err := d.Employees.Update(cmd.Args[0], cmd.Args[1], cmd.Args[2], cmd.Args[3], cmd.Args[4], cmd.Args[5]); err != nil {
			return "", err
		}
		c.persistEmployee(cmd.Args[0])
		return "OK;Employee updated", nil

	case "SET_EMPLOYEE_ACTIVE":
		return c.setEmployeeActive(cmd.Args, sess)

	case "DELETE_EMPLOYEE":
		if !permissions.CanManageEmployees(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		if err := d.Employees.Delete(cmd.Args[0]); err != nil {
			return "", err
		}
		c.persist(func(s Store) error { return s.DeleteEmployee(strings.TrimSpace(cmd.Args[0])) })
		return "OK;Employee deleted", nil

	case "LIST_EMPLOYEES":
		return c.listEmployees(sess)

	case "GET_EMPLOYEE":
		if !permissions.CanViewEmployees(sess.UserType) {
			return "", models.ErrUnauthorized
		}
		emp, err := d.Employees.Get(cmd.Args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("OK;%s;%s;%s;%s;%t",
			emp.EmployeeNumber, emp.FullName, emp.Role, emp.BranchID, emp.Active), nil

	case "LIST_EMPLOYEES_BY_BRANCH":
		if !permissions.CanViewEmployees(sess.UserType) ||
			!permissions.CanAccessBranch(sess.UserType, sess.BranchID, cmd.Args[0]) {
			return "", models.ErrUnauthorized
		}
		return formatEmployees(d.Employees.ListByBranch(cmd.Args[0])), nil
	}

	return "", fmt.Errorf("%w: unhandled command %s", models.ErrProtocol, cmd.Verb)
}

func (c *conn) login(username, password string, authed bool) (string, error) {
	if authed {
		return "", models.ErrAlreadyLoggedIn
	}
	acc, err := c.srv.deps.Auth.Authenticate(username, password)
	if err != nil {
		c.srv.deps.Audit.Event("login_failed", auth.Normalize(username))
		return "", err
	}
	sess, err := c.srv.deps.Sessions.Create(acc.Username, acc.EmployeeNumber, acc.BranchID, acc.UserType, c.id)
	if err != nil {
		return "", err
	}
	c.srv.deps.Audit.Event("login", sess.Username, zap.String("branch", sess.BranchID))
	return fmt.Sprintf("LOGIN_SUCCESS;%s;%s;%s", sess.UserType, sess.BranchID, sess.EmployeeNumber), nil
}

// waitingRequests serves the client poll loop from a short-lived cache so
// a room full of polling clients does not hammer the engine lock.
func (c *conn) waitingRequests(branchID string) string {
	key := "waiting:" + branchID
	if cached, ok := c.srv.waiting.Get(key); ok {
		return cached.(string)
	}
	reqs := c.srv.deps.Chat.WaitingForOthers(branchID)
	parts := make([]string, 0, len(reqs))
	for _, r := range reqs {
		parts = append(parts, r.ID+":"+r.Requester)
	}
	reply := "OK;" + strings.Join(parts, "|")
	c.srv.waiting.SetDefault(key, reply)
	return reply
}

func (c *conn) chatMessages(chatID string) (string, error) {
	if _, ok := c.srv.deps.Chat.Chat(chatID); !ok {
		return "", fmt.Errorf("chat %s: %w", chatID, models.ErrNotFound)
	}
	history := c.srv.deps.Chat.History(chatID)
	payload := struct {
		ChatID   string               `json:"chatId"`
		Messages []models.ChatMessage `json:"messages"`
	}{ChatID: chatID, Messages: history}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	return "OK;" + string(data), nil
}

func (c *conn) endChat(chatID string, sess models.Session) (string, error) {
	matches, err := c.srv.deps.Chat.EndChat(chatID)
	if err != nil {
		return "", err
	}
	c.srv.deps.Audit.ChatEvent(chatID, "chat_ended", sess.Username)
	for _, m := range matches {
		c.srv.deps.Audit.ChatEvent(m.ChatID, "chat_started",
			fmt.Sprintf("%s matched with %s", m.Requester, m.Partner))
	}

	// the ender's client shows the cross-branch waiting list right away
	reqs := c.srv.deps.Chat.WaitingForOthers(sess.BranchID)
	if len(reqs) == 0 {
		return "OK;Chat ended", nil
	}
	parts := make([]string, 0, len(reqs))
	for _, r := range reqs {
		parts = append(parts, r.ID+":"+r.Requester)
	}
	return "OK;Chat ended;WAITING;" + strings.Join(parts, "|"), nil
}

// sell is the one compound operation: the stock decrement is the atomic
// step, everything after it is a best-effort follow-up.
func (c *conn) sell(args []string, sess models.Session) (string, error) {
	d := c.srv.deps
	productID := strings.TrimSpace(args[0])
	qty, err := parseQty(args[1])
	if err != nil {
		return "", err
	}
	branchID := strings.TrimSpace(args[2])
	customerID := ""
	if len(args) > 3 {
		customerID = strings.TrimSpace(args[3])
	}

	if !permissions.CanAccessBranch(sess.UserType, sess.BranchID, branchID) {
		return "", models.ErrUnauthorized
	}

	product, err := d.Catalog.Get(productID)
	if err != nil {
		return "", err
	}
	ctype := models.CustomerNew
	if customerID != "" {
		cust, err := d.Customers.Get(customerID)
		if err != nil {
			return "", err
		}
		ctype = cust.Type
	}

	if err := d.Inventory.Sell(branchID, productID, qty); err != nil {
		return "", err
	}

	sale := d.Ledger.Record(models.Sale{
		ProductID:      productID,
		BranchID:       branchID,
		EmployeeNumber: sess.EmployeeNumber,
		CustomerID:     customerID,
		Quantity:       qty,
		UnitPrice:      product.Price,
		FinalPrice:     sales.FinalPrice(product.Price, qty, ctype),
	})
	c.persist(func(s Store) error {
		if err := s.UpsertStock(branchID, productID, d.Inventory.Quantity(branchID, productID)); err != nil {
			return err
		}
		return s.AppendSale(sale)
	})
	d.Audit.Event("sale", sale.ID,
		zap.String("product", productID),
		zap.String("branch", branchID),
		zap.Int("qty", qty),
		zap.Float64("finalPrice", sale.FinalPrice))

	return fmt.Sprintf("OK;SOLD;%s;%.2f", sale.ID, sale.FinalPrice), nil
}

func (c *conn) adjustStock(args []string, sess models.Session, op func(string, string, int) error, verb string) (string, error) {
	productID := strings.TrimSpace(args[0])
	qty, err := parseQty(args[1])
	if err != nil {
		return "", err
	}
	branchID := strings.TrimSpace(args[2])
	if !permissions.CanAccessBranch(sess.UserType, sess.BranchID, branchID) {
		return "", models.ErrUnauthorized
	}
	if err := op(branchID, productID, qty); err != nil {
		return "", err
	}
	remaining := c.srv.deps.Inventory.Quantity(branchID, productID)
	c.persist(func(s Store) error { return s.UpsertStock(branchID, productID, remaining) })
	return fmt.Sprintf("OK;%s;%d", verb, remaining), nil
}

func (c *conn) addProduct(args []string, sess models.Session) (string, error) {
	if !permissions.CanManageCatalog(sess.UserType) {
		return "", models.ErrUnauthorized
	}
	price, err := parsePrice(args[3])
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(args[0])
	if err := c.srv.deps.Catalog.Add(id, strings.TrimSpace(args[1]), strings.TrimSpace(args[2]), price); err != nil {
		return "", err
	}
	product, _ := c.srv.deps.Catalog.Get(id)
	c.persist(func(s Store) error { return s.UpsertProduct(product) })
	return "OK;Product added", nil
}

func (c *conn) setProductActive(args []string, sess models.Session) (string, error) {
	if !permissions.CanManageCatalog(sess.UserType) {
		return "", models.ErrUnauthorized
	}
	active, err := parseBool(args[1])
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(args[0])
	if err := c.srv.deps.Catalog.SetActive(id, active); err != nil {
		return "", err
	}
	product, _ := c.srv.deps.Catalog.Get(id)
	c.persist(func(s Store) error { return s.UpsertProduct(product) })
	return "OK;Product updated", nil
}

func (c *conn) salesReport(args []string, sess models.Session) (string, error) {
	if !permissions.CanViewLogs(sess.UserType) {
		return "", models.ErrUnauthorized
	}
	branchID := strings.TrimSpace(args[0])
	if !permissions.CanAccessBranch(sess.UserType, sess.BranchID, branchID) {
		return "", models.ErrUnauthorized
	}
	ledger := c.srv.deps.Ledger
	var records []models.Sale
	var total float64
	if len(args) == 2 {
		for _, s := range ledger.ListByEmployee(strings.TrimSpace(args[1])) {
			if s.BranchID == branchID {
				records = append(records, s)
				total += s.FinalPrice
			}
		}
	} else {
		records = ledger.ListByBranch(branchID)
		total = ledger.Revenue(branchID)
	}
	parts := make([]string, 0, len(records))
	for _, s := range records {
		parts = append(parts, fmt.Sprintf("%s:%s:%d:%.2f", s.ID, s.ProductID, s.Quantity, s.FinalPrice))
	}
	return fmt.Sprintf("OK;total:%.2f;%s", total, strings.Join(parts, "|")), nil
}

func (c *conn) listProducts() string {
	products := c.srv.deps.Catalog.List()
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, fmt.Sprintf("%s:%s:%.2f:%t", p.ID, p.Name, p.Price, p.Active))
	}
	return "OK;" + strings.Join(parts, "|")
}

func (c *conn) addCustomer(args []string) (string, error) {
	cust := models.Customer{
		IDNumber: args[0],
		FullName: args[1],
		Phone:    args[2],
		Type:     models.CustomerType(strings.ToUpper(strings.TrimSpace(args[3]))),
	}
	if err := c.srv.deps.Customers.Add(cust); err != nil {
		return "", err
	}
	stored, _ := c.srv.deps.Customers.Get(cust.IDNumber)
	c.persist(func(s Store) error { return s.UpsertCustomer(stored) })
	return "OK;Customer added", nil
}

func (c *conn) updateCustomer(args []string) (string, error) {
	id := strings.TrimSpace(args[0])
	ctype := models.CustomerType(strings.ToUpper(strings.TrimSpace(args[3])))
	if err := c.srv.deps.Customers.Update(id, args[1], args[2], ctype); err != nil {
		return "", err
	}
	stored, _ := c.srv.deps.Customers.Get(id)
	c.persist(func(s Store) error { return s.UpsertCustomer(stored) })
	return "OK;Customer updated", nil
}

func (c *conn) listCustomers() string {
	customers := c.srv.deps.Customers.List()
	parts := make([]string, 0, len(customers))
	for _, cust := range customers {
		parts = append(parts, fmt.Sprintf("%s:%s:%s", cust.IDNumber, cust.FullName, cust.Type))
	}
	return "OK;" + strings.Join(parts, "|")
}

func (c *conn) createUser(args []string, sess models.Session) (string, error) {
	username, password, employeeNumber, userType, branchID := args[0], args[1], args[2], args[3], args[4]
	if !permissions.CanCreateUser(sess.UserType, sess.BranchID, strings.TrimSpace(branchID)) {
		return "", models.ErrUnauthorized
	}
	if err := c.srv.deps.Auth.CreateUser(username, password, employeeNumber, userType, branchID); err != nil {
		return "", err
	}
	c.persistAccount(username)
	c.srv.deps.Audit.Event("user_created", auth.Normalize(username), zap.String("by", sess.Username))
	return "OK;User created", nil
}

func (c *conn) setUserActive(args []string, sess models.Session) (string, error) {
	if !permissions.CanManageUsers(sess.UserType) {
		return "", models.ErrUnauthorized
	}
	active, err := parseBool(args[1])
	if err != nil {
		return "", err
	}
	if err := c.srv.deps.Auth.SetActive(args[0], active); err != nil {
		return "", err
	}
	c.persistAccount(args[0])
	return "OK;User updated", nil
}

func (c *conn) listUsers() string {
	users := c.srv.deps.Auth.ListUsers()
	parts := make([]string, 0, len(users))
	for _, u := range users {
		parts = append(parts, fmt.Sprintf("%s:%s:%s:%t", u.Username, u.UserType, u.BranchID, u.Active))
	}
	return "OK;" + strings.Join(parts, "|")
}

func (c *conn) createEmployee(args []string, sess models.Session) (string, error) {
	emp := models.Employee{
		EmployeeNumber: args[0],
		FullName:       args[1],
		IDNumber:       args[2],
		Phone:          args[3],
		BankAccount:    args[4],
		Role:           args[5],
		BranchID:       args[6],
	}
	if !permissions.CanCreateEmployee(sess.UserType, sess.BranchID, strings.TrimSpace(emp.BranchID)) {
		return "", models.ErrUnauthorized
	}
	if err := c.srv.deps.Employees.Add(emp); err != nil {
		return "", err
	}
	c.persistEmployee(emp.EmployeeNumber)
	return "OK;Employee created", nil
}

func (c *conn) setEmployeeActive(args []string, sess models.Session) (string, error) {
	if !permissions.CanManageEmployees(sess.UserType) {
		return "", models.ErrUnauthorized
	}
	active, err := parseBool(args[1])
	if err != nil {
		return "", err
	}
	if err := c.srv.deps.Employees.SetActive(args[0], active); err != nil {
		return "", err
	}
	c.persistEmployee(args[0])
	return "OK;Employee updated", nil
}

func (c *conn) listEmployees(sess models.Session) (string, error) {
	if !permissions.CanViewEmployees(sess.UserType) {
		return "", models.ErrUnauthorized
	}
	if permissions.CanViewAllBranches(sess.UserType) {
		return formatEmployees(c.srv.deps.Employees.List()), nil
	}
	return formatEmployees(c.srv.deps.Employees.ListByBranch(sess.BranchID)), nil
}

func formatEmployees(employees []models.Employee) string {
	parts := make([]string, 0, len(employees))
	for _, e := range employees {
		parts = append(parts, fmt.Sprintf("%s:%s:%s:%s", e.EmployeeNumber, e.FullName, e.Role, e.BranchID))
	}
	return "OK;" + strings.Join(parts, "|")
}

// persist runs one write-through trigger. Storage failures are logged and
// swallowed, the in-memory state already changed and stays authoritative.
func (c *conn) persist(fn func(Store) error) {
	if c.srv.deps.Store == nil {
		return
	}
	if err := fn(c.srv.deps.Store); err != nil {
		c.srv.log.Warn("persist failed", zap.Error(err))
	}
}

func (c *conn) persistAccount(username string) {
	acc, err := c.srv.deps.Auth.GetUser(username)
	if err != nil {
		return
	}
	c.persist(func(s Store) error { return s.UpsertAccount(acc) })
}

func (c *conn) persistEmployee(number string) {
	emp, err := c.srv.deps.Employees.Get(number)
	if err != nil {
		return
	}
	c.persist(func(s Store) error { return s.UpsertEmployee(emp) })
}
