package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type tcpClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialServer(t *testing.T, addr string) *tcpClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &tcpClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
	require.Equal(t, "CONNECTED", c.read())
	return c
}

func (c *tcpClient) read() string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimRight(line, "\n")
}

func (c *tcpClient) send(line string) string {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
	return c.read()
}

// mustLogin retries until the login succeeds, because a previous
// connection's disconnect cleanup runs asynchronously on its handler
// goroutine.
func mustLogin(t *testing.T, c *tcpClient, user, pw string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		reply := c.send("LOGIN;" + user + ";" + pw)
		if strings.HasPrefix(reply, "LOGIN_SUCCESS;") {
			return reply
		}
		require.True(t, time.Now().Before(deadline), "login as %s kept failing, last reply %q", user, reply)
		time.Sleep(20 * time.Millisecond)
	}
}

// sellOnce logs in, issues one sell and logs out, with plain error
// returns so it is safe to call from a spawned goroutine.
func sellOnce(addr, user, pw, sellCmd string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(conn)

	exchange := func(line string) (string, error) {
		if line != "" {
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return "", err
			}
		}
		reply, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimRight(reply, "\n"), nil
	}

	if greeting, err := exchange(""); err != nil || greeting != "CONNECTED" {
		return "", fmt.Errorf("bad greeting %q: %w", greeting, err)
	}
	if reply, err := exchange("LOGIN;" + user + ";" + pw); err != nil || !strings.HasPrefix(reply, "LOGIN_SUCCESS;") {
		return "", fmt.Errorf("login failed %q: %w", reply, err)
	}
	reply, err := exchange(sellCmd)
	if err != nil {
		return "", err
	}
	_, _ = exchange("LOGOUT")
	return reply, nil
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server did not start on %s", addr)
}

func TestIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	dbFile := filepath.Join(tmpDir, "integration_test.db")
	addr := freeAddr(t)

	t.Setenv("BACKOFFICE_DB", dbFile)
	t.Setenv("AUDIT_LOG", filepath.Join(tmpDir, "audit.log"))
	t.Setenv("LISTEN_ADDR", addr)

	// Bootstrap the first admin before the server starts.
	require.NoError(t, run(context.Background(), bootstrapFlags{
		addAdmin: "root",
		password: "rootpass",
		branch:   "B1",
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, bootstrapFlags{})
	}()
	waitForServer(t, addr)

	// Seed users, catalog and stock through the protocol.
	root := dialServer(t, addr)
	require.Equal(t, "LOGIN_SUCCESS;admin;B1;", root.send("LOGIN;root;rootpass"))
	require.Equal(t, "OK;User created", root.send("CREATE_USER;alice;alicepw;E1;manager;B1"))
	require.Equal(t, "OK;User created", root.send("CREATE_USER;bob;robertpw;E2;salesman;B2"))
	require.Equal(t, "OK;User created", root.send("CREATE_USER;carol;carolpw;E3;salesman;B2"))
	require.Equal(t, "ERROR;password must be at least 6 characters", root.send("CREATE_USER;eve;tiny;E9;salesman;B1"))
	require.Equal(t, "OK;Product added", root.send("ADD_PRODUCT_TO_CATALOG;P1;Shirt;clothing;10.00"))
	require.Equal(t, "OK;Stock added;5", root.send("ADD_PRODUCT_TO_INVENTORY;P1;5;B1"))
	// log out so the admin session cannot show up as an available chat
	// partner in the scenarios below
	require.Equal(t, "LOGOUT_SUCCESS", root.send("LOGOUT"))

	t.Run("ScenarioA_QueueThenMatch", func(t *testing.T) {
		alice := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;manager;B1;E1", alice.send("LOGIN;alice;alicepw"))

		// alice is alone, so her request queues
		queued := alice.send("REQUEST_CHAT")
		require.True(t, strings.HasPrefix(queued, "OK;QUEUE;"), queued)

		bob := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;salesman;B2;E2", bob.send("LOGIN;bob;robertpw"))
		matched := bob.send("REQUEST_CHAT")
		require.True(t, strings.HasPrefix(matched, "OK;MATCHED;"), matched)
		parts := strings.Split(matched, ";")
		require.Len(t, parts, 5)
		require.Equal(t, "alice", parts[3])
		require.Equal(t, "bob", parts[4])
		chatID := parts[2]

		require.Equal(t, "OK;IN_CHAT", alice.send("GET_USER_CHAT_STATUS"))
		require.Equal(t, "OK;IN_CHAT", bob.send("GET_USER_CHAT_STATUS"))

		require.Equal(t, "OK;Message sent", alice.send("SEND_MESSAGE;"+chatID+";hi bob"))
		history := bob.send("GET_CHAT_MESSAGES;" + chatID)
		require.Contains(t, history, `"senderUsername":"alice"`)
		require.Contains(t, history, "hi bob")

		ended := alice.send("END_CHAT;" + chatID)
		require.True(t, strings.HasPrefix(ended, "OK;Chat ended"), ended)
		require.Equal(t, "OK;AVAILABLE", alice.send("GET_USER_CHAT_STATUS"))
		require.Equal(t, "OK;AVAILABLE", bob.send("GET_USER_CHAT_STATUS"))

		require.Equal(t, "LOGOUT_SUCCESS", alice.send("LOGOUT"))
		require.Equal(t, "LOGOUT_SUCCESS", bob.send("LOGOUT"))
	})

	t.Run("ScenarioB_ConcurrentSells", func(t *testing.T) {
		// stock of P1 in B1 is 5, two concurrent sells of 3 each
		results := make(chan string, 2)
		for _, creds := range []struct{ user, pw string }{
			{"alice", "alicepw"},
			{"root", "rootpass"},
		} {
			go func(user, pw string) {
				reply, err := sellOnce(addr, user, pw, "SELL;P1;3;B1")
				if err != nil {
					reply = "dial error: " + err.Error()
				}
				results <- reply
			}(creds.user, creds.pw)
		}

		var ok, fail int
		for i := 0; i < 2; i++ {
			reply := <-results
			if strings.HasPrefix(reply, "OK;SOLD;") {
				ok++
			} else {
				require.Contains(t, reply, "insufficient stock")
				fail++
			}
		}
		require.Equal(t, 1, ok)
		require.Equal(t, 1, fail)

		require.True(t, strings.HasPrefix(root.send("LOGIN;root;rootpass"), "LOGIN_SUCCESS;"))
		require.Equal(t, "OK;2", root.send("GET_QUANTITY;P1;B1"))
		require.Equal(t, "LOGOUT_SUCCESS", root.send("LOGOUT"))
	})

	t.Run("ScenarioC_BadPasswordTwice", func(t *testing.T) {
		c := dialServer(t, addr)
		first := c.send("LOGIN;bob;wrongpass")
		require.True(t, strings.HasPrefix(first, "AUTH_ERROR;"), first)
		second := c.send("LOGIN;bob;wrongpass")
		require.True(t, strings.HasPrefix(second, "AUTH_ERROR;"), second)

		// no session was created, a clean login still works
		good := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;salesman;B2;E2", good.send("LOGIN;bob;robertpw"))
		require.Equal(t, "LOGOUT_SUCCESS", good.send("LOGOUT"))
	})

	t.Run("ScenarioD_DisconnectFreesSession", func(t *testing.T) {
		c := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;manager;B1;E1", c.send("LOGIN;alice;alicepw"))
		require.NoError(t, c.conn.Close())

		deadline := time.Now().Add(3 * time.Second)
		for {
			again := dialServer(t, addr)
			reply := again.send("LOGIN;alice;alicepw")
			if reply == "LOGIN_SUCCESS;manager;B1;E1" {
				require.Equal(t, "LOGOUT_SUCCESS", again.send("LOGOUT"))
				break
			}
			require.True(t, time.Now().Before(deadline), "session not released, last reply %q", reply)
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("ScenarioE_EndChatSweepsQueue", func(t *testing.T) {
		alice := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;manager;B1;E1", mustLogin(t, alice, "alice", "alicepw"))

		queued := alice.send("REQUEST_CHAT")
		require.True(t, strings.HasPrefix(queued, "OK;QUEUE;"), queued)

		bob := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;salesman;B2;E2", mustLogin(t, bob, "bob", "robertpw"))
		matched := bob.send("REQUEST_CHAT")
		require.True(t, strings.HasPrefix(matched, "OK;MATCHED;"), matched)
		chatID := strings.Split(matched, ";")[2]

		// carol queues while alice and bob are busy, B2 has no partner
		carol := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;salesman;B2;E3", mustLogin(t, carol, "carol", "carolpw"))
		carolQueued := carol.send("REQUEST_CHAT")
		require.True(t, strings.HasPrefix(carolQueued, "OK;QUEUE;"), carolQueued)

		// ending the chat frees alice, the sweep pairs her with carol
		ended := alice.send("END_CHAT;" + chatID)
		require.True(t, strings.HasPrefix(ended, "OK;Chat ended"), ended)
		require.Equal(t, "OK;IN_CHAT", carol.send("GET_USER_CHAT_STATUS"))
		require.Equal(t, "OK;IN_CHAT", alice.send("GET_USER_CHAT_STATUS"))
		require.Equal(t, "OK;AVAILABLE", bob.send("GET_USER_CHAT_STATUS"))
	})

	t.Run("AcceptFromWaitingList", func(t *testing.T) {
		// everyone from the previous subtest is gone, so bob's request
		// has no automatic partner until root logs in and accepts
		bob := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;salesman;B2;E2", mustLogin(t, bob, "bob", "robertpw"))

		queued := bob.send("REQUEST_CHAT")
		require.True(t, strings.HasPrefix(queued, "OK;QUEUE;"), queued)
		reqID := strings.TrimPrefix(queued, "OK;QUEUE;")

		root2 := dialServer(t, addr)
		require.Equal(t, "LOGIN_SUCCESS;admin;B1;", mustLogin(t, root2, "root", "rootpass"))
		waiting := root2.send("GET_WAITING_REQUESTS")
		require.Contains(t, waiting, reqID+":bob")

		matched := root2.send("ACCEPT_CHAT_REQUEST;" + reqID)
		require.True(t, strings.HasPrefix(matched, "OK;MATCHED;"), matched)
		require.Contains(t, matched, "bob")
	})

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
