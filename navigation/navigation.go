// Package navigation models the view redirects the session core triggers:
// to the login entry point on logout and back to a destination after login.
package navigation

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/octabyte/pharmacy-session/enums"
	"github.com/octabyte/pharmacy-session/utils/logger"
	"go.uber.org/zap"
)

type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) {
	f(ctx, route)
}

type Event struct {
	Route string
	At    time.Time
}

// Recorder remembers every navigation in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) Navigate(_ context.Context, route string) {
	r.mu.Lock()
	r.events = append(r.events, Event{Route: route, At: r.now()})
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent route, or "" when nothing was recorded.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ""
	}
	return r.events[len(r.events)-1].Route
}

// Count reports how many times route was navigated to.
func (r *Recorder) Count(route string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Route == route {
			n++
		}
	}
	return n
}

// LogNavigator records redirects in the structured log.
type LogNavigator struct{}

func (LogNavigator) Navigate(_ context.Context, route string) {
	logger.LogInfo("navigate", zap.String("route", route))
}

// Chain forwards every navigation to each navigator in order.
func Chain(navigators ...Navigator) Navigator {
	return NavigatorFunc(func(ctx context.Context, route string) {
		for _, n := range navigators {
			n.Navigate(ctx, route)
		}
	})
}

// ReturnDestination picks where to go after a successful login. Only local
// absolute paths are honoured; anything else lands on the dashboard.
func ReturnDestination(returnURL string) string {
	returnURL = strings.TrimSpace(returnURL)
	if returnURL == "" || !strings.HasPrefix(returnURL, "/") || strings.HasPrefix(returnURL, "//") || strings.Contains(returnURL, `\`) {
		return enums.RouteDashboard
	}
	u, err := url.Parse(returnURL)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return enums.RouteDashboard
	}
	if isLoginRoute(u.Path) {
		return enums.RouteDashboard
	}
	return returnURL
}

// LoginRedirect is the login route carrying route as its return destination.
func LoginRedirect(route string) string {
	if route == "" || isLoginRoute(route) {
		return enums.RouteLogin
	}
	q := url.Values{}
	q.Set(enums.QueryReturnURL, route)
	return enums.RouteLogin + "?" + q.Encode()
}

func isLoginRoute(path string) bool {
	return path == enums.RouteLogin || strings.HasPrefix(path, enums.RouteLogin+"/") || strings.HasPrefix(path, enums.RouteLogin+"?")
}
