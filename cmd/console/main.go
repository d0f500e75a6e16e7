package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"facility-booking/config"
	"facility-booking/internal/infrastructure/cache"
	"facility-booking/pkg/client"
	"facility-booking/pkg/wizard"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const help = `commands:
  patient <uuid>                      select patient
  service <uuid>                      select service
  details <mode> <YYYY-MM-DD HH:mm:ss> set payment mode and booking date
  override on|off                     toggle override (before submit)
  submit                              create the booking
  otp                                 request a consent or override OTP
  code <digits>                       submit the OTP
  back | dismiss | state | quit`

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	api := client.New(cfg.Client.BaseURL, client.WithTimeout(cfg.Client.Timeout), client.WithLogger(log))

	token := os.Getenv("CONSOLE_TOKEN")
	if token == "" {
		tokens, err := api.Login(ctx, os.Getenv("CONSOLE_EMAIL"), os.Getenv("CONSOLE_PASSWORD"))
		if err != nil {
			log.Fatalf("login: %s", client.UserMessage(err))
		}
		token = tokens.AccessToken
	}
	api = client.New(cfg.Client.BaseURL,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithLogger(log),
		client.WithTokenSource(client.StaticToken(token)),
	)

	draftID := os.Getenv("CONSOLE_DRAFT")
	if draftID == "" {
		draftID = uuid.NewString()
	}
	runner := wizard.NewRunner(api, wizard.NewRedisStore(redisClient, wizard.DefaultDraftTTL), log,
		wizard.WithPendingTimeout(2*cfg.Client.Timeout))

	fmt.Printf("draft %s\n%s\n", draftID, help)
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); scanner.Scan(); fmt.Print("> ") {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" {
			return
		}

		action, err := parseAction(fields)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if action == nil {
			fmt.Println(help)
			continue
		}

		st, err := runner.Dispatch(ctx, draftID, *action)
		printState(st)
		if err != nil {
			fmt.Printf("! %s\n", st.LastError)
		}
	}
}

// parseAction returns nil for unknown input.
func parseAction(fields []string) (*wizard.Action, error) {
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "patient", "service":
		id, err := uuid.Parse(arg(1))
		if err != nil {
			return nil, fmt.Errorf("invalid id: %w", err)
		}
		if fields[0] == "patient" {
			return &wizard.Action{Type: wizard.ActionSelectPatient, PatientID: id}, nil
		}
		return &wizard.Action{Type: wizard.ActionSelectService, ServiceID: id}, nil
	case "details":
		date, err := time.ParseInLocation(client.BookingDateLayout, arg(2)+" "+arg(3), time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid booking date: %w", err)
		}
		return &wizard.Action{Type: wizard.ActionSetDetails, PaymentMode: arg(1), BookingDate: date}, nil
	case "override":
		return &wizard.Action{Type: wizard.ActionSetOverride, Override: arg(1) == "on"}, nil
	case "submit":
		return &wizard.Action{Type: wizard.ActionSubmit}, nil
	case "otp":
		return &wizard.Action{Type: wizard.ActionRequestOTP}, nil
	case "code":
		return &wizard.Action{Type: wizard.ActionSubmitCode, Code: arg(1)}, nil
	case "back":
		return &wizard.Action{Type: wizard.ActionBack}, nil
	case "dismiss", "state":
		return &wizard.Action{Type: wizard.ActionDismissError}, nil
	}
	return nil, nil
}

func printState(st wizard.State) {
	fmt.Printf("step=%s", st.Step)
	if st.BookingNumber != "" {
		fmt.Printf(" booking=%s", st.BookingNumber)
	}
	if st.OTPExpiresAt != nil {
		fmt.Printf(" otp_expires=%s", st.OTPExpiresAt.Local().Format(client.BookingDateLayout))
	}
	if st.Notice != "" {
		fmt.Printf(" notice=%q", st.Notice)
	}
	fmt.Println()
}
