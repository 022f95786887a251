package httpserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

const viewCookieName = "ataxx_view"

const (
	viewDesktop = "web"
	viewMobile  = "mobile"
)

var viewAliases = map[string]string{
	"web":        viewDesktop,
	"desktop":    viewDesktop,
	"pc":         viewDesktop,
	"mobile":     viewMobile,
	"m":          viewMobile,
	"phone":      viewMobile,
	"web_mobile": viewMobile,
}

var mobileUANeedles = []string{"android", "iphone", "ipad", "ipod", "mobile", "windows phone", "harmony"}

// RegisterStaticRoutes mounts /web/ (desktop) and /web_mobile/ (mobile) and sends / to one
// of them: ?view= first, then the remembered cookie, then the User-Agent.
func RegisterStaticRoutes(r *mux.Router, desktopDir, mobileDir string) {
	if desktopDir == "" {
		desktopDir = "."
	}
	if mobileDir == "" {
		mobileDir = desktopDir
	}

	r.PathPrefix("/web/").Handler(http.StripPrefix("/web/", http.FileServer(http.Dir(desktopDir))))
	r.PathPrefix("/web_mobile/").Handler(http.StripPrefix("/web_mobile/", http.FileServer(http.Dir(mobileDir))))

	r.Path("/web").Handler(http.RedirectHandler("/web/", http.StatusFound))
	r.Path("/web_mobile").Handler(http.RedirectHandler("/web_mobile/", http.StatusFound))
	r.Path("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		target := "/web/"
		if pickView(w, req) == viewMobile {
			target = "/web_mobile/"
		}
		w.Header().Set("Vary", "User-Agent, Cookie")
		http.Redirect(w, req, target, http.StatusFound)
	})
}

func pickView(w http.ResponseWriter, r *http.Request) string {
	if v, ok := viewAliases[normalize(r.URL.Query().Get("view"))]; ok {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookieName,
			Value:    v,
			Path:     "/",
			MaxAge:   30 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(viewCookieName); err == nil {
		if v, ok := viewAliases[normalize(c.Value)]; ok {
			return v
		}
	}
	ua := strings.ToLower(r.UserAgent())
	for _, n := range mobileUANeedles {
		if strings.Contains(ua, n) {
			return viewMobile
		}
	}
	return viewDesktop
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
