package loader

import (
	j "encoding/json"
	"net/http"
	"time"

	"github.com/AGPFMiner/fpgaloader/types"

	"github.com/gorilla/mux"
	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	"go.uber.org/zap"
)

type LoaderRPCArgs struct {
	Who string
}

type LoaderRPCReply struct {
	RunInfo string
}

func (l *Loader) GetRunStats(r *http.Request, args *LoaderRPCArgs, reply *LoaderRPCReply) error {
	status := l.RunStates()
	res, _ := j.Marshal(&status)
	reply.RunInfo = string(res)
	return nil
}

func (l *Loader) GetLoaderStatus(w http.ResponseWriter, r *http.Request) {
	status := l.RunStates()

	data := &types.LoaderStatus{
		Status: &types.LoaderRunStatus{
			Run:        &status,
			LoaderUp:   true,
			LoaderDown: false,
			Time:       time.Now().Unix(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	j.NewEncoder(w).Encode(data)
}

// ServeAPI exposes the last run's state over HTTP. Only meaningful in
// watch mode; one-shot runs are gone before anyone could poll them.
func (l *Loader) ServeAPI(listen string) error {
	s := rpc.NewServer()
	s.RegisterCodec(json.NewCodec(), "application/json")
	s.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	s.RegisterService(l, "loader")
	r := mux.NewRouter()
	r.Handle("/rpc", s)

	r.HandleFunc("/loader/f_status", l.GetLoaderStatus)
	if err := http.ListenAndServe(listen, r); err != nil {
		l.logger.Error("api", zap.String("listen", listen), zap.Error(err))
		return err
	}
	return nil
}
