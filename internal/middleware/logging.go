package middleware

import (
	"net/http"

	"github.com/2beens/fittracker/pkg"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if log.IsLevelEnabled(log.TraceLevel) {
				ip, err := pkg.ReadUserIP(r)
				if err != nil {
					ip = "unknown"
				}
				log.Tracef(" ====> request [%s] path: [%s] [ip: %s] [UA: %s]", r.Method, r.URL.Path, ip, r.Header.Get("User-Agent"))
			}
			next.ServeHTTP(w, r)
		})
	}
}
