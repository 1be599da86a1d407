package imap

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
)

// ListeningPort accepts local mail clients and relays them upstream.
type ListeningPort struct {
	listener  net.Listener
	factory   *Factory
	dial      DialFunc
	onConnect func()

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
	acceptWg sync.WaitGroup
}

// Listen starts accepting clients on addr. onConnect, if set, runs for
// every accepted client before the upstream connection is made.
func Listen(addr string, factory *Factory, dial DialFunc, onConnect func()) (*ListeningPort, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &ListeningPort{
		listener:  l,
		factory:   factory,
		dial:      dial,
		onConnect: onConnect,
		ctx:       ctx,
		cancel:    cancel,
	}

	log.Info("IMAP listening on %s", l.Addr())
	p.acceptWg.Add(1)
	go p.acceptLoop()
	return p, nil
}

// Addr returns the address the port is bound to.
func (p *ListeningPort) Addr() net.Addr {
	return p.listener.Addr()
}

// StopListening closes the listener. Relayed sessions are left to the factory.
func (p *ListeningPort) StopListening() error {
	var err error
	p.stopOnce.Do(func() {
		p.cancel()
		err = p.listener.Close()
		p.acceptWg.Wait()
		log.Info("IMAP stopped listening on %s", p.listener.Addr())
	})
	return err
}

func (p *ListeningPort) acceptLoop() {
	defer p.acceptWg.Done()

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("Accept failed: %v", err)
			continue
		}
		go p.serve(conn)
	}
}

func (p *ListeningPort) serve(client net.Conn) {
	id := uuid.New().String()
	if err := p.factory.register(id, client); err != nil {
		log.Debug("Refusing client %s: %v", client.RemoteAddr(), err)
		client.Close()
		return
	}
	defer p.factory.unregister(id)
	defer client.Close()

	log.Debug("Client %s connected from %s", id, client.RemoteAddr())
	if p.onConnect != nil {
		p.onConnect()
	}

	upstream, err := p.dial(p.ctx)
	if err != nil {
		log.Error("Client %s: upstream unavailable: %v", id, err)
		io.WriteString(client, "* BYE upstream server unavailable\r\n")
		return
	}
	defer upstream.Close()
	p.factory.attach(id, upstream)

	errc := make(chan error, 2)
	go func() {
		_, err := io.Copy(upstream, client)
		errc <- err
	}()
	go func() {
		_, err := io.Copy(client, upstream)
		errc <- err
	}()

	<-errc
	client.Close()
	upstream.Close()
	<-errc
	log.Debug("Client %s disconnected", id)
}
