package mymqtt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-logr/logr"
	"github.com/grandcat/zeroconf"
)

const BROKER_SERVICE = "_mqtt._tcp."
const PRIVATE_PORT = 1883

const ZEROCONF_TIMEOUT = 5 * time.Second

type Options struct {
	Broker   string // host[:port]; empty = discover via zeroconf
	Username string
	Password string
	Timeout  time.Duration
}

type Client struct {
	Id        string      // MQTT client_id (this client)
	mqtt      mqtt.Client // MQTT stack
	brokerUrl *url.URL    // MQTT broker to connect to
	timeout   time.Duration
	log       logr.Logger
}

func NewClientE(ctx context.Context, log logr.Logger, o Options) (*Client, error) {
	clientId := fmt.Sprintf("%v%v", path.Base(os.Args[0]), os.Getpid())
	log.V(1).Info("Initializing MQTT client", "client_id", clientId)

	brokerUrl, err := lookupBroker(ctx, log, o.Broker, browseZeroConf)
	if err != nil {
		log.Error(err, "could not find MQTT broker", "where", o.Broker)
		return nil, err
	}
	log.Info("Using MQTT broker", "url", brokerUrl)

	opts := mqtt.NewClientOptions()
	opts.SetUsername(o.Username)
	opts.SetPassword(o.Password)
	opts.SetClientID(clientId)
	opts.SetConnectTimeout(o.Timeout)
	opts.AddBroker(brokerUrl.String())

	return &Client{
		Id:        clientId,
		mqtt:      mqtt.NewClient(opts),
		brokerUrl: brokerUrl,
		timeout:   o.Timeout,
		log:       log,
	}, nil
}

func (c *Client) connect(ctx context.Context) error {
	if c.mqtt.IsConnected() {
		return nil
	}
	token := c.mqtt.Connect()
	if err := wait(ctx, token, c.timeout); err != nil {
		c.log.Error(err, "MQTT client failed to connect", "client_id", c.Id)
		return err
	}
	c.log.V(1).Info("MQTT client connected", "client_id", c.Id)
	return nil
}

func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case <-token.Done():
		return token.Error()
	case <-deadline:
		return fmt.Errorf("MQTT timeout after %v", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) BrokerUrl() *url.URL {
	return c.brokerUrl
}

func (c *Client) Close() {
	if c.mqtt.IsConnected() {
		c.mqtt.Disconnect(250 /* milliseconds */)
	}
}

// Publish sends a retained message, at-least-once
func (c *Client) Publish(ctx context.Context, topic string, msg []byte) error {
	if err := c.connect(ctx); err != nil {
		return err
	}
	c.log.V(1).Info("Publishing", "topic", topic, "payload", string(msg))
	if err := wait(ctx, c.mqtt.Publish(topic, 1 /*qos:at-least-once*/, true /*retain*/, msg), c.timeout); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	c.log.Info("Published", "topic", topic)
	return nil
}

// Publish connects, publishes one retained message and disconnects
func Publish(ctx context.Context, log logr.Logger, o Options, topic string, msg []byte) error {
	c, err := NewClientE(ctx, log, o)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Publish(ctx, topic, msg)
}

type browser func(ctx context.Context, log logr.Logger) ([]*url.URL, error)

func lookupBroker(ctx context.Context, log logr.Logger, where string, browse browser) (*url.URL, error) {
	log.V(1).Info("Looking up MQTT broker", "where", where)

	if where != "" {
		host, port, err := splitHostPort(where)
		if err != nil {
			return nil, err
		}
		if ip := net.ParseIP(host); ip != nil {
			return brokerURL(host, port), nil
		}
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err == nil {
			return brokerURL(host, port), nil
		}
		log.Info("Unknown MQTT broker host, trying zeroconf", "where", where)
	}

	brokers, err := browse(ctx, log)
	if err != nil {
		log.Error(err, "Zeroconf lookup failed", "service", BROKER_SERVICE)
		return nil, err
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no MQTT broker found")
	}
	return brokers[0], nil
}

// splitHostPort accepts host, host:port, an IPv6 address or [IPv6]:port
func splitHostPort(where string) (string, int, error) {
	if net.ParseIP(where) != nil {
		return where, PRIVATE_PORT, nil
	}
	host, p, err := net.SplitHostPort(where)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && strings.Contains(addrErr.Err, "missing port") {
			return strings.Trim(where, "[]"), PRIVATE_PORT, nil
		}
		return "", 0, fmt.Errorf("invalid MQTT broker %q: %w", where, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid MQTT broker port in %q: %w", where, err)
	}
	return host, port, nil
}

func brokerURL(host string, port int) *url.URL {
	return &url.URL{
		Scheme: "tcp",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
}

func browseZeroConf(ctx context.Context, log logr.Logger) ([]*url.URL, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		log.Error(err, "Failed to initialize zeroconf resolver")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, ZEROCONF_TIMEOUT)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := resolver.Browse(ctx, BROKER_SERVICE, "local.", entries); err != nil {
		log.Error(err, "failed to browse")
		return nil, err
	}

	brokers := make([]*url.URL, 0)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return brokers, nil
			}
			// Filter-out spurious candidates
			if !strings.Contains(entry.Service, BROKER_SERVICE) {
				continue
			}
			log.Info("Found MQTT broker", "addresses", entry.AddrIPv4, "port", entry.Port)
			for _, addrIpV4 := range entry.AddrIPv4 {
				brokers = append(brokers, brokerURL(addrIpV4.String(), entry.Port))
			}
		case <-ctx.Done():
			return brokers, nil
		}
	}
}
