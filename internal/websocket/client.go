package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"Hermes/internal/models"
)

// Настройки соединения
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // чаще, чем pongWait
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client представляет одну живую сессию. Жизненный цикл:
// connecting -> open -> authenticated -> closed. До успешного login
// identity пустая, и любые события, кроме login, отклоняются.
type Client struct {
	ID   string // process-local id соединения
	hub  *Hub
	conn *websocket.Conn

	// Send — общая очередь рассылки; наполняет и закрывает ее только Hub.
	Send chan models.Event

	// direct — персональные события (ошибки, ответы до авторизации);
	// идут мимо общей очереди и не ждут history.
	direct chan models.Event

	// history — одноразовый шлюз: WritePump не трогает Send, пока сюда
	// не придет снимок истории. Так history всегда раньше живых событий.
	history chan models.Event

	identity      Identity
	authenticated bool
	lastSeen      time.Time
	typing        typingGate

	// id сообщений, попавших в снимок history: по ним WritePump гасит
	// по одному дубликату из живой рассылки (подписка оформляется до
	// снимка, поэтому перекрытие возможно).
	seen map[int64]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		Send:    make(chan models.Event, sendBufferSize),
		direct:  make(chan models.Event, 16),
		history: make(chan models.Event, 1),
	}
}

// sendError доставляет событие об ошибке только этой сессии.
// Если персональная очередь забита, событие теряем — не блокируемся.
func (c *Client) sendError(msg string) {
	select {
	case c.direct <- models.NewErrorEvent(msg):
	default:
	}
}

// ReadPump читает события клиента и выполняет их. Вся работа с хранилищем
// происходит здесь, в горутине соединения, а не в цикле Hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				hubLogger.Warn("websocket read error", "connection_id", c.ID, "error", err)
			}
			break
		}
		c.lastSeen = time.Now()

		var ev models.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			// Кадр дошел, соединение живо — отвечаем ошибкой и ждем дальше.
			c.sendError("Malformed payload")
			continue
		}
		c.handleEvent(ev)
	}
}

// WritePump — единственный писатель в соединение. Порядок отдачи:
// сначала history (после login), затем общая очередь; персональные
// события проходят в любой момент.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	historyCh := c.history
	var sendCh chan models.Event // nil, пока не отдали history

	for {
		select {
		case ev, ok := <-sendCh:
			if !ok {
				// Hub закрыл очередь — прощаемся.
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if ev.Type == models.EventTypeMessage {
				if _, dup := c.seen[ev.ID]; dup {
					delete(c.seen, ev.ID)
					continue
				}
			}
			if err := c.writeEvent(ev); err != nil {
				return
			}

		case ev := <-c.direct:
			if err := c.writeEvent(ev); err != nil {
				return
			}

		case ev := <-historyCh:
			if err := c.writeEvent(ev); err != nil {
				return
			}
			historyCh = nil
			sendCh = c.Send

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeEvent(ev models.Event) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(ev); err != nil {
		hubLogger.Warn("websocket write error", "connection_id", c.ID, "error", err)
		return err
	}
	return nil
}
