package http

// indexHTML is the minimal chat page. It talks to the SSE endpoint for
// streamed answers and to /api/reset for the reset action.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>docchat</title>
    <style>
        body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; }
        #messages { border: 1px solid #ccc; padding: 1rem; min-height: 300px; margin-bottom: 1rem; }
        .message { margin: 0.5rem 0; }
        .user { font-weight: bold; }
        .error { color: #b00; }
        form { display: flex; gap: 0.5rem; }
        input[type=text] { flex: 1; }
    </style>
</head>
<body>
    <h1>docchat</h1>
    <p>Ask questions about the documents in the watched folder, or POST text to /api/documents.</p>
    <div id="messages"></div>
    <form id="chat-form" onsubmit="sendMessage(event)">
        <input type="text" id="message-input" placeholder="Ask about your documents..." autocomplete="off" required>
        <button type="submit">Send</button>
        <button type="button" onclick="resetSession()">Reset</button>
    </form>
    <script>
        function appendMessage(cls, text) {
            const el = document.createElement('div');
            el.className = 'message ' + cls;
            el.textContent = text;
            document.getElementById('messages').appendChild(el);
            el.scrollIntoView();
            return el;
        }
        function sendMessage(e) {
            e.preventDefault();
            const input = document.getElementById('message-input');
            const message = input.value.trim();
            if (!message) return;
            appendMessage('user', message);
            input.value = '';
            const el = appendMessage('assistant', '');
            const source = new EventSource('/api/chat/stream?q=' + encodeURIComponent(message));
            source.onmessage = function(event) {
                const data = JSON.parse(event.data);
                if (data.error) { el.textContent = data.error; el.className = 'message error'; }
                else if (data.content) { el.textContent += data.content; }
                if (data.done) source.close();
            };
            source.onerror = function() { source.close(); };
        }
        function resetSession() {
            fetch('/api/reset', { method: 'POST' }).then(function() {
                document.getElementById('messages').innerHTML = '';
            });
        }
    </script>
</body>
</html>`
