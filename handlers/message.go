package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"loom/database"
	"loom/models"
	"loom/timeline"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required,max=1000"`
}

func SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receiver ID"})
		return
	}
	if receiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot message yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var sender models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&sender); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sender"})
		return
	}

	count, err := database.Users.CountDocuments(ctx, bson.M{"_id": receiverID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receiver not found"})
		return
	}

	message := models.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   userID,
		ReceiverID: receiverID,
		Content:    req.Content,
		IsRead:     false,
		CreatedAt:  time.Now().Unix(),
	}

	if _, err := database.Messages.InsertOne(ctx, message); err != nil {
		log.Printf("SendMessage insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	// Realtime delivery to connected devices; receivers without an open
	// connection get a web push instead. Clients de-duplicate by message id.
	if wsManager != nil {
		wsManager.SendToUser(receiverID.Hex(), "new_message", gin.H{
			"id":        message.ID.Hex(),
			"senderId":  userID.Hex(),
			"sender":    timeline.NewAuthorView(userID, &sender),
			"content":   message.Content,
			"createdAt": message.CreatedAt,
		})

		if !wsManager.IsOnline(receiverID.Hex()) {
			SendMessagePush(receiverID, req.Content, sender.Username)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"id":      message.ID.Hex(),
	})
}

// GetMessages returns the conversation between the caller and a partner,
// oldest first, with a safe sender fragment on every row.
func GetMessages(c *gin.Context) {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := database.Messages.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"senderId": userID, "receiverId": partnerID},
		bson.M{"senderId": partnerID, "receiverId": userID},
	}}, opts)
	if err != nil {
		log.Printf("GetMessages error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		log.Printf("GetMessages decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode messages"})
		return
	}

	users, err := fetchUsers(ctx, []primitive.ObjectID{userID, partnerID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	response := make([]gin.H, len(messages))
	for i, m := range messages {
		var senderRow *models.User
		if u, ok := users[m.SenderID]; ok {
			senderRow = &u
		}
		response[i] = gin.H{
			"id":        m.ID.Hex(),
			"senderId":  m.SenderID.Hex(),
			"sender":    timeline.NewAuthorView(m.SenderID, senderRow),
			"content":   m.Content,
			"isRead":    m.IsRead,
			"createdAt": m.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetConversations lists the caller's conversations: one entry per partner
// with the latest message and the unread count, newest first.
func GetConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "senderId", Value: userID}},
			bson.D{{Key: "receiverId", Value: userID}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$addFields", Value: bson.D{{Key: "partnerId", Value: bson.D{
			{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$senderId", userID}}},
				"$receiverId",
				"$senderId",
			}},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$partnerId"},
			{Key: "lastMessage", Value: bson.D{{Key: "$first", Value: "$content"}}},
			{Key: "lastMessageAt", Value: bson.D{{Key: "$first", Value: "$createdAt"}}},
			{Key: "unread", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$and", Value: bson.A{
						bson.D{{Key: "$eq", Value: bson.A{"$receiverId", userID}}},
						bson.D{{Key: "$eq", Value: bson.A{"$isRead", false}}},
					}}},
					1,
					0,
				}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessageAt", Value: -1}}}},
	}

	cur, err := database.Messages.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetConversations aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}
	defer cur.Close(ctx)

	var rows []struct {
		PartnerID     primitive.ObjectID `bson:"_id"`
		LastMessage   string             `bson:"lastMessage"`
		LastMessageAt int64              `bson:"lastMessageAt"`
		Unread        int64              `bson:"unread"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		log.Printf("GetConversations decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode conversations"})
		return
	}

	partnerIDs := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		partnerIDs[i] = r.PartnerID
	}
	partners, err := fetchUsers(ctx, partnerIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	response := make([]gin.H, len(rows))
	for i, r := range rows {
		var partnerRow *models.User
		if u, ok := partners[r.PartnerID]; ok {
			partnerRow = &u
		}
		response[i] = gin.H{
			"partner":       timeline.NewAuthorView(r.PartnerID, partnerRow),
			"lastMessage":   r.LastMessage,
			"lastMessageAt": r.LastMessageAt,
			"unreadCount":   r.Unread,
		}
	}

	c.JSON(http.StatusOK, response)
}

// MarkMessagesRead marks everything the partner sent to the caller as read
// and tells the partner's devices about it.
func MarkMessagesRead(c *gin.Context) {
	partnerID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Messages.UpdateMany(
		ctx,
		bson.M{"senderId": partnerID, "receiverId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		log.Printf("MarkMessagesRead error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark as read"})
		return
	}

	if wsManager != nil && result.ModifiedCount > 0 {
		wsManager.SendToUser(partnerID.Hex(), "message_read", gin.H{
			"readerId":  userID.Hex(),
			"timestamp": time.Now().Unix(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Marked as read",
		"updatedCount": result.ModifiedCount,
	})
}
