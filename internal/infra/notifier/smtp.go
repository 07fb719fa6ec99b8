package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/pkg/errs"
)

type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	OperatorEmail string
	// Timeout bounds a send whose context carries no deadline.
	Timeout time.Duration
}

const defaultSendTimeout = 30 * time.Second

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers order notifications over SMTP. Each call sends exactly one
// message and reports the outcome; retries belong to the ledger.
type Mailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewMailer(cfg SMTPConfig) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	m := &Mailer{cfg: cfg}
	m.send = m.sendMail
	return m
}

func (m *Mailer) NotifyOperator(ctx context.Context, o *order.Order) error {
	subject := "Order received " + o.ID().String()
	return m.deliver(ctx, m.cfg.OperatorEmail, subject, operatorBody(o))
}

func (m *Mailer) NotifyBuyer(ctx context.Context, o *order.Order) error {
	subject := "Your order has been placed"
	return m.deliver(ctx, o.ContactEmail(), subject, buyerBody(o))
}

func (m *Mailer) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return errs.New("notification recipient address is empty")
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(ctx, addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errs.Wrap(ctxErr, "smtp send aborted: "+err.Error())
		}
		return errs.Wrap(err, "smtp send failed")
	}
	return nil
}

// sendMail is smtp.SendMail over a connection bound to ctx: the dial honours
// cancellation and every read and write shares the context deadline.
func (m *Mailer) sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errs.New("smtp server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func operatorBody(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s was paid.\n\n", o.ID())
	writeLines(&b, o)
	fmt.Fprintf(&b, "\nDeliver to: %s (%s)\n", o.DeliveryAddress(), o.DeliveryAreaLabel())
	fmt.Fprintf(&b, "Contact: %s, %s\n", o.ContactEmail(), o.ContactPhone())
	return b.String()
}

func buyerBody(o *order.Order) string {
	var b strings.Builder
	b.WriteString("Thank you for your order.\n\n")
	writeLines(&b, o)
	fmt.Fprintf(&b, "\nIt will be delivered to %s.\n", o.DeliveryAddress())
	return b.String()
}

func writeLines(b *strings.Builder, o *order.Order) {
	for _, l := range o.Lines() {
		fmt.Fprintf(b, "%d x %s  %s\n", l.Quantity, l.ProductName, l.Total())
	}
	fmt.Fprintf(b, "Delivery  %s\n", o.DeliveryPrice())
	fmt.Fprintf(b, "Total  %s\n", o.Total())
}
