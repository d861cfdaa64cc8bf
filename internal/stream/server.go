package stream

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"net/http"
	"time"
)

//go:embed index.html
var indexHTML []byte

// NewMux serves the viewer page at / and the hub at /ws.
func NewMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	mux.Handle("/ws", hub)
	return mux
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, hub *Hub) error {
	srv := &http.Server{Addr: addr, Handler: NewMux(hub)}

	errc := make(chan error, 1)
	go func() {
		log.Printf("serving on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
