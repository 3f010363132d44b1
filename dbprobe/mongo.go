package dbprobe

import (
	"context"
	"strings"
	"time"

	errgo "gopkg.in/errgo.v1"
	mgo "gopkg.in/mgo.v2"
)

// defaultMongoTimeout is used when the context has no deadline.
const defaultMongoTimeout = 15 * time.Second

type mongoSession struct {
	s *mgo.Session
}

func (s mongoSession) Ping(ctx context.Context) error {
	// mgo doesn't support contexts, so ping in the background
	// and abandon it if the context is done first.
	done := make(chan error, 1)
	go func() {
		done <- s.s.Ping()
	}()
	select {
	case err := <-done:
		return errgo.Mask(err)
	case <-ctx.Done():
		return errgo.Mask(ctx.Err())
	}
}

func (s mongoSession) Close() error {
	s.s.Close()
	return nil
}

// mongoDialInfo returns the mgo dial info for d. The server may
// hold several comma-separated addresses.
func mongoDialInfo(ctx context.Context, d Descriptor) *mgo.DialInfo {
	timeout := defaultMongoTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	var addrs []string
	for _, a := range strings.Split(d.Server, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return &mgo.DialInfo{
		Addrs:    addrs,
		Database: d.Database,
		Username: d.UID,
		Password: d.PWD,
		Timeout:  timeout,
		FailFast: true,
	}
}

func dialMongo(ctx context.Context, d Descriptor) (Session, error) {
	info := mongoDialInfo(ctx, d)
	if len(info.Addrs) == 0 {
		return nil, errgo.Newf("no MongoDB server address")
	}
	if info.Timeout <= 0 {
		return nil, errgo.Mask(context.DeadlineExceeded)
	}
	session, err := mgo.DialWithInfo(info)
	if err != nil {
		return nil, errgo.Mask(err)
	}
	s := mongoSession{session}
	if err := s.Ping(ctx); err != nil {
		session.Close()
		return nil, errgo.Mask(err)
	}
	return s, nil
}
