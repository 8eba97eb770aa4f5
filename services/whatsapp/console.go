package whatsappsvc

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/proclass/backend/core"
)

var (
	SentMessages = make([]core.TextMessage, 0)
	mu           sync.Mutex
)

// consoleService prints messages to the console instead of delivering them.
// Used in development and as the base of the test mock.
type consoleService struct {
	disableOutput bool
}

var _ core.MessagingService = (*consoleService)(nil)

func NewConsoleService() core.MessagingService {
	return &consoleService{}
}

func (svc *consoleService) Send(_ context.Context, msg core.TextMessage) (string, error) {
	if !svc.disableOutput {
		log.Println(fmt.Sprintf("WhatsApp message\nTo: +%s\n%s", msg.To, msg.Body))
	}
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
	return uuid.New().String(), nil
}

func ClearSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock() core.MessagingService {
	return &consoleServiceMock{consoleService{disableOutput: true}}
}
